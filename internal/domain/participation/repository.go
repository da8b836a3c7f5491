package participation

import (
	"context"

	"github.com/goldenstat/identity/internal/domain/identity"
)

// Repository describes the read-only view of participation facts the
// resolution engine needs.
type Repository interface {
	// SummarizeByPlayerName aggregates facts for every player row recorded
	// under the exact name: one row per (player_id, team, division, season)
	// with distinct sub-match count and first/last match date.
	SummarizeByPlayerName(ctx context.Context, name string) ([]identity.ActivityRow, error)
	// ListRefsByPlayer returns every fact of one player with match metadata.
	ListRefsByPlayer(ctx context.Context, playerID int64) ([]FactRef, error)
	// ListNamesWithActivity returns player names having at least minMatches
	// distinct sub-matches, for the full-dataset candidate scan.
	ListNamesWithActivity(ctx context.Context, minMatches int) ([]string, error)
	Exists(ctx context.Context, subMatchID, playerID int64, teamNumber int) (bool, error)
	// ListDuplicates returns facts recorded more than once, ordered by
	// sub-match then player.
	ListDuplicates(ctx context.Context) ([]DuplicateFact, error)
}
