package identity

import "time"

// PlayerContext summarizes one player identity's activity within one club,
// division, and season. It is derived on demand from participation facts and
// is the unit every other part of the engine reasons about; raw facts are
// never consumed directly.
type PlayerContext struct {
	PlayerID   int64     `json:"player_id"`
	PlayerName string    `json:"player_name"`
	ClubName   string    `json:"club_name"`
	Division   string    `json:"division"`
	Season     string    `json:"season"`
	DateStart  time.Time `json:"date_start"`
	DateEnd    time.Time `json:"date_end"`
	MatchCount int       `json:"match_count"`
}

type contextKey struct {
	playerID int64
	club     string
	division string
	season   string
}

// ActivityRow is the raw per-team aggregation a repository produces before
// club normalization. Two rows collapse into one context when their team
// names normalize to the same club.
type ActivityRow struct {
	PlayerID   int64
	PlayerName string
	TeamName   string
	Division   string
	Season     string
	DateStart  time.Time
	DateEnd    time.Time
	MatchCount int
}

// BuildContexts normalizes team names and merges rows that land on the same
// (player, club, division, season) key. Output order follows first
// appearance in the input, which repositories keep deterministic.
func BuildContexts(rows []ActivityRow, normalizer *ClubNormalizer) []PlayerContext {
	merged := make(map[contextKey]*PlayerContext, len(rows))
	order := make([]contextKey, 0, len(rows))

	for _, row := range rows {
		key := contextKey{
			playerID: row.PlayerID,
			club:     normalizer.Normalize(row.TeamName),
			division: row.Division,
			season:   row.Season,
		}

		ctx, ok := merged[key]
		if !ok {
			merged[key] = &PlayerContext{
				PlayerID:   row.PlayerID,
				PlayerName: row.PlayerName,
				ClubName:   key.club,
				Division:   row.Division,
				Season:     row.Season,
				DateStart:  row.DateStart,
				DateEnd:    row.DateEnd,
				MatchCount: row.MatchCount,
			}
			order = append(order, key)
			continue
		}

		ctx.MatchCount += row.MatchCount
		if row.DateStart.Before(ctx.DateStart) {
			ctx.DateStart = row.DateStart
		}
		if row.DateEnd.After(ctx.DateEnd) {
			ctx.DateEnd = row.DateEnd
		}
	}

	out := make([]PlayerContext, 0, len(order))
	for _, key := range order {
		out = append(out, *merged[key])
	}
	return out
}
