package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/goldenstat/identity/internal/domain/identity"
	"github.com/goldenstat/identity/internal/domain/participation"
	qb "github.com/goldenstat/identity/internal/platform/querybuilder"
)

// teamJoin resolves the team a participant played for from the participant's
// side of the match.
const teamJoin = "JOIN teams t ON t.id = CASE WHEN smp.team_number = 1 THEN m.team1_id ELSE m.team2_id END"

type ParticipationRepository struct {
	db *sqlx.DB
}

func NewParticipationRepository(db *sqlx.DB) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

func (r *ParticipationRepository) SummarizeByPlayerName(ctx context.Context, name string) ([]identity.ActivityRow, error) {
	query, args, err := qb.Select(
		"p.id AS player_id",
		"p.name AS player_name",
		"t.name AS team_name",
		"m.division",
		"m.season",
		"MIN(m.match_date) AS date_start",
		"MAX(m.match_date) AS date_end",
		"COUNT(DISTINCT smp.sub_match_id) AS match_count",
	).
		From("sub_match_participants smp").
		Join("JOIN players p ON p.id = smp.player_id").
		Join("JOIN sub_matches sm ON sm.id = smp.sub_match_id").
		Join("JOIN matches m ON m.id = sm.match_id").
		Join(teamJoin).
		Where(qb.Eq("p.name", name)).
		GroupBy("p.id", "p.name", "t.name", "m.division", "m.season").
		OrderBy("p.id", "t.name", "m.division", "m.season").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build summarize participation query: %w", err)
	}

	var rows []activityRowModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("summarize participation by name: %w", err)
	}

	out := make([]identity.ActivityRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, identity.ActivityRow{
			PlayerID:   row.PlayerID,
			PlayerName: row.PlayerName,
			TeamName:   row.TeamName,
			Division:   row.Division,
			Season:     row.Season,
			DateStart:  row.DateStart,
			DateEnd:    row.DateEnd,
			MatchCount: row.MatchCount,
		})
	}
	return out, nil
}

func (r *ParticipationRepository) ListRefsByPlayer(ctx context.Context, playerID int64) ([]participation.FactRef, error) {
	query, args, err := qb.Select(
		"smp.sub_match_id",
		"smp.team_number",
		"t.name AS team_name",
		"m.division",
		"m.season",
		"m.match_date",
	).
		From("sub_match_participants smp").
		Join("JOIN sub_matches sm ON sm.id = smp.sub_match_id").
		Join("JOIN matches m ON m.id = sm.match_id").
		Join(teamJoin).
		Where(qb.Eq("smp.player_id", playerID)).
		OrderBy("m.match_date", "smp.sub_match_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fact refs query: %w", err)
	}

	var rows []factRefModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fact refs by player: %w", err)
	}

	out := make([]participation.FactRef, 0, len(rows))
	for _, row := range rows {
		out = append(out, participation.FactRef{
			SubMatchID: row.SubMatchID,
			TeamNumber: row.TeamNumber,
			TeamName:   row.TeamName,
			Division:   row.Division,
			Season:     row.Season,
			MatchDate:  row.MatchDate,
		})
	}
	return out, nil
}

func (r *ParticipationRepository) ListNamesWithActivity(ctx context.Context, minMatches int) ([]string, error) {
	query, args, err := qb.Select("p.name").
		From("sub_match_participants smp").
		Join("JOIN players p ON p.id = smp.player_id").
		GroupBy("p.name").
		Having(qb.Expr("COUNT(DISTINCT smp.sub_match_id) >= ?", minMatches)).
		OrderBy("p.name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active names query: %w", err)
	}

	var names []string
	if err := r.db.SelectContext(ctx, &names, query, args...); err != nil {
		return nil, fmt.Errorf("list names with activity: %w", err)
	}
	return names, nil
}

func (r *ParticipationRepository) Exists(ctx context.Context, subMatchID, playerID int64, teamNumber int) (bool, error) {
	return factExists(ctx, r.db, subMatchID, playerID, teamNumber)
}

func (r *ParticipationRepository) ListDuplicates(ctx context.Context) ([]participation.DuplicateFact, error) {
	query, args, err := qb.Select(
		"sub_match_id",
		"player_id",
		"team_number",
		"COUNT(*) AS duplicate_count",
	).
		From("sub_match_participants").
		GroupBy("sub_match_id", "player_id", "team_number").
		Having(qb.Expr("COUNT(*) > ?", 1)).
		OrderBy("sub_match_id", "player_id", "team_number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list duplicate facts query: %w", err)
	}

	var rows []duplicateFactModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list duplicate facts: %w", err)
	}

	out := make([]participation.DuplicateFact, 0, len(rows))
	for _, row := range rows {
		out = append(out, participation.DuplicateFact{
			Fact: participation.Fact{
				SubMatchID: row.SubMatchID,
				PlayerID:   row.PlayerID,
				TeamNumber: row.TeamNumber,
			},
			Count: row.Count,
		})
	}
	return out, nil
}

func factExists(ctx context.Context, q sqlx.QueryerContext, subMatchID, playerID int64, teamNumber int) (bool, error) {
	query, args, err := qb.Select("1").
		From("sub_match_participants").
		Where(
			qb.Eq("sub_match_id", subMatchID),
			qb.Eq("player_id", playerID),
			qb.Eq("team_number", teamNumber),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build fact exists query: %w", err)
	}

	var one int
	if err := sqlx.GetContext(ctx, q, &one, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check fact exists: %w", err)
	}
	return true, nil
}
