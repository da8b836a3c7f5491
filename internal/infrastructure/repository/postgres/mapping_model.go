package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/goldenstat/identity/internal/domain/mapping"
)

type mappingTableModel struct {
	ID                 int64          `db:"id"`
	SubMatchID         int64          `db:"sub_match_id"`
	OriginalPlayerID   int64          `db:"original_player_id"`
	CorrectPlayerID    int64          `db:"correct_player_id"`
	CorrectPlayerName  string         `db:"correct_player_name"`
	MatchContext       sql.NullString `db:"match_context"`
	Confidence         int            `db:"confidence"`
	MappingReason      sql.NullString `db:"mapping_reason"`
	Notes              sql.NullString `db:"notes"`
	Status             string         `db:"status"`
	AppliedTeamNumbers pq.Int64Array  `db:"applied_team_numbers"`
	CreatedAt          time.Time      `db:"created_at"`
}

func (m mappingTableModel) toDomain() mapping.Mapping {
	var applied []int
	for _, teamNumber := range m.AppliedTeamNumbers {
		applied = append(applied, int(teamNumber))
	}

	return mapping.Mapping{
		ID:                 m.ID,
		SubMatchID:         m.SubMatchID,
		OriginalPlayerID:   m.OriginalPlayerID,
		CorrectPlayerID:    m.CorrectPlayerID,
		CorrectPlayerName:  m.CorrectPlayerName,
		MatchContext:       m.MatchContext.String,
		Confidence:         m.Confidence,
		MappingReason:      m.MappingReason.String,
		Notes:              m.Notes.String,
		Status:             mapping.Status(m.Status),
		AppliedTeamNumbers: applied,
		CreatedAt:          m.CreatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
