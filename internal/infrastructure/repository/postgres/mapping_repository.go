package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/goldenstat/identity/internal/domain/mapping"
	qb "github.com/goldenstat/identity/internal/platform/querybuilder"
)

type MappingRepository struct {
	db *sqlx.DB
}

var mappingSelectColumns = []string{
	"id",
	"sub_match_id",
	"original_player_id",
	"correct_player_id",
	"correct_player_name",
	"match_context",
	"confidence",
	"mapping_reason",
	"notes",
	"status",
	"applied_team_numbers",
	"created_at",
}

func NewMappingRepository(db *sqlx.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

func (r *MappingRepository) InsertIfAbsent(ctx context.Context, m mapping.Mapping) (bool, error) {
	query, args, err := qb.InsertInto("sub_match_player_mappings").
		Columns(
			"sub_match_id",
			"original_player_id",
			"correct_player_id",
			"correct_player_name",
			"match_context",
			"confidence",
			"mapping_reason",
			"notes",
			"status",
		).
		Values(
			m.SubMatchID,
			m.OriginalPlayerID,
			m.CorrectPlayerID,
			m.CorrectPlayerName,
			nullString(m.MatchContext),
			m.Confidence,
			nullString(m.MappingReason),
			nullString(m.Notes),
			string(m.Status),
		).
		Suffix("ON CONFLICT (sub_match_id, original_player_id) DO NOTHING RETURNING id").
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build insert mapping query: %w", err)
	}

	var id int64
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		// No row returned means the conflict target already holds a mapping.
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert mapping: %w", err)
	}
	return true, nil
}

func (r *MappingRepository) GetByID(ctx context.Context, id int64) (mapping.Mapping, bool, error) {
	query, args, err := qb.Select(mappingSelectColumns...).
		From("sub_match_player_mappings").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return mapping.Mapping{}, false, fmt.Errorf("build get mapping query: %w", err)
	}

	var row mappingTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return mapping.Mapping{}, false, nil
		}
		return mapping.Mapping{}, false, fmt.Errorf("get mapping: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *MappingRepository) List(ctx context.Context) ([]mapping.Mapping, error) {
	query, args, err := qb.Select(mappingSelectColumns...).
		From("sub_match_player_mappings").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list mappings query: %w", err)
	}
	return r.selectMappings(ctx, query, args)
}

func (r *MappingRepository) ListByStatus(ctx context.Context, status mapping.Status) ([]mapping.Mapping, error) {
	query, args, err := qb.Select(mappingSelectColumns...).
		From("sub_match_player_mappings").
		Where(qb.Eq("status", string(status))).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list mappings by status query: %w", err)
	}
	return r.selectMappings(ctx, query, args)
}

func (r *MappingRepository) UpdateStatus(ctx context.Context, id int64, status mapping.Status) (bool, error) {
	query, args, err := qb.Update("sub_match_player_mappings").
		Set("status", string(status)).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build update mapping status query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update mapping status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update mapping status rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *MappingRepository) Delete(ctx context.Context, id int64) (bool, error) {
	query, args, err := qb.DeleteFrom("sub_match_player_mappings").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete mapping query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete mapping: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete mapping rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *MappingRepository) TargetIDsForName(ctx context.Context, name string) ([]int64, error) {
	query, args, err := qb.Select("DISTINCT correct_player_id").
		From("sub_match_player_mappings").
		Where(
			qb.Eq("correct_player_name", name),
			qb.In("status", []any{string(mapping.StatusConfirmed), string(mapping.StatusApplied)}),
		).
		OrderBy("correct_player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build target ids query: %w", err)
	}

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("select mapping target ids: %w", err)
	}
	return ids, nil
}

func (r *MappingRepository) selectMappings(ctx context.Context, query string, args []any) ([]mapping.Mapping, error) {
	var rows []mappingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select mappings: %w", err)
	}

	out := make([]mapping.Mapping, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
