package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/goldenstat/identity/internal/domain/mapping"
	"github.com/goldenstat/identity/internal/domain/participation"
	qb "github.com/goldenstat/identity/internal/platform/querybuilder"
	"github.com/goldenstat/identity/internal/usecase"
)

// TxManager implements usecase.TxManager over one database transaction.
type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) Atomic(ctx context.Context, fn func(ops usecase.TxOps) error) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&txOps{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txOps struct {
	tx *sqlx.Tx
}

func (o *txOps) ListFacts(ctx context.Context, subMatchID, playerID int64) ([]participation.Fact, error) {
	query, args, err := qb.Select("sub_match_id", "player_id", "team_number").
		From("sub_match_participants").
		Where(
			qb.Eq("sub_match_id", subMatchID),
			qb.Eq("player_id", playerID),
		).
		OrderBy("team_number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list facts query: %w", err)
	}

	var rows []factModel
	if err := o.tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}

	out := make([]participation.Fact, 0, len(rows))
	for _, row := range rows {
		out = append(out, participation.Fact{
			SubMatchID: row.SubMatchID,
			PlayerID:   row.PlayerID,
			TeamNumber: row.TeamNumber,
		})
	}
	return out, nil
}

func (o *txOps) FactExists(ctx context.Context, subMatchID, playerID int64, teamNumber int) (bool, error) {
	return factExists(ctx, o.tx, subMatchID, playerID, teamNumber)
}

func (o *txOps) ReassignFact(ctx context.Context, subMatchID, fromPlayerID, toPlayerID int64, teamNumber int) error {
	query, args, err := qb.Update("sub_match_participants").
		Set("player_id", toPlayerID).
		Where(
			qb.Eq("sub_match_id", subMatchID),
			qb.Eq("player_id", fromPlayerID),
			qb.Eq("team_number", teamNumber),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build reassign fact query: %w", err)
	}
	if _, err := o.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("reassign fact: %w", err)
	}
	return nil
}

func (o *txOps) DeleteDuplicateFacts(ctx context.Context, f participation.Fact) (int64, error) {
	query, args, err := qb.DeleteFrom("sub_match_participants").
		Where(
			qb.Eq("sub_match_id", f.SubMatchID),
			qb.Eq("player_id", f.PlayerID),
			qb.Eq("team_number", f.TeamNumber),
			qb.Expr("id <> (SELECT MIN(id) FROM sub_match_participants WHERE sub_match_id = ? AND player_id = ? AND team_number = ?)",
				f.SubMatchID, f.PlayerID, f.TeamNumber),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build delete duplicate facts query: %w", err)
	}

	res, err := o.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete duplicate facts: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete duplicate facts rows affected: %w", err)
	}
	return removed, nil
}

func (o *txOps) MarkMappingApplied(ctx context.Context, id int64, teamNumbers []int) error {
	applied := make(pq.Int64Array, 0, len(teamNumbers))
	for _, teamNumber := range teamNumbers {
		applied = append(applied, int64(teamNumber))
	}

	query, args, err := qb.Update("sub_match_player_mappings").
		Set("status", string(mapping.StatusApplied)).
		Set("applied_team_numbers", applied).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark mapping applied query: %w", err)
	}
	if _, err := o.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark mapping applied: %w", err)
	}
	return nil
}

func (o *txOps) DeleteMapping(ctx context.Context, id int64) error {
	query, args, err := qb.DeleteFrom("sub_match_player_mappings").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete mapping query: %w", err)
	}
	if _, err := o.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	return nil
}
