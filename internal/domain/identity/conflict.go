package identity

import (
	"sort"
	"time"
)

// Severity classifies how strongly a temporal overlap argues against two
// player ids being the same person.
type Severity string

const (
	// SeverityHigh: simultaneous activity at two different clubs. One person
	// cannot play for two clubs at overlapping times, so this is near-certain
	// evidence of two different people sharing a name.
	SeverityHigh Severity = "high"
	// SeverityMedium: same club and same division at overlapping times.
	// Usually a data-duplication artifact rather than a true conflict, but
	// it still blocks automatic merging.
	SeverityMedium Severity = "medium"
	// SeverityLow: same club, different division. One person legitimately
	// playing for two teams of the same club.
	SeverityLow Severity = "low"
)

// TemporalConflict records overlapping activity between two player ids that
// share a name string.
type TemporalConflict struct {
	PlayerIDA      int64     `json:"player_id_a"`
	PlayerIDB      int64     `json:"player_id_b"`
	PlayerNameA    string    `json:"player_name_a"`
	PlayerNameB    string    `json:"player_name_b"`
	ClubA          string    `json:"club_a"`
	ClubB          string    `json:"club_b"`
	OverlapStart   time.Time `json:"overlap_start"`
	OverlapEnd     time.Time `json:"overlap_end"`
	DifferentClubs bool      `json:"different_clubs"`
	Severity       Severity  `json:"severity"`
}

// DetectConflicts compares every pair of contexts belonging to different
// player ids and reports each temporal overlap with its severity.
func DetectConflicts(contexts []PlayerContext) []TemporalConflict {
	byPlayer := make(map[int64][]PlayerContext)
	for _, ctx := range contexts {
		byPlayer[ctx.PlayerID] = append(byPlayer[ctx.PlayerID], ctx)
	}

	ids := make([]int64, 0, len(byPlayer))
	for id := range byPlayer {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var conflicts []TemporalConflict
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			for _, a := range byPlayer[ids[i]] {
				for _, b := range byPlayer[ids[j]] {
					if !rangesOverlap(a, b) {
						continue
					}
					conflicts = append(conflicts, newConflict(a, b))
				}
			}
		}
	}
	return conflicts
}

func rangesOverlap(a, b PlayerContext) bool {
	if a.DateStart.IsZero() || a.DateEnd.IsZero() || b.DateStart.IsZero() || b.DateEnd.IsZero() {
		return false
	}
	return !a.DateStart.After(b.DateEnd) && !b.DateStart.After(a.DateEnd)
}

func newConflict(a, b PlayerContext) TemporalConflict {
	start := a.DateStart
	if b.DateStart.After(start) {
		start = b.DateStart
	}
	end := a.DateEnd
	if b.DateEnd.Before(end) {
		end = b.DateEnd
	}

	differentClubs := a.ClubName != b.ClubName
	severity := SeverityMedium
	switch {
	case differentClubs:
		severity = SeverityHigh
	case a.Division != b.Division:
		severity = SeverityLow
	}

	return TemporalConflict{
		PlayerIDA:      a.PlayerID,
		PlayerIDB:      b.PlayerID,
		PlayerNameA:    a.PlayerName,
		PlayerNameB:    b.PlayerName,
		ClubA:          a.ClubName,
		ClubB:          b.ClubName,
		OverlapStart:   start,
		OverlapEnd:     end,
		DifferentClubs: differentClubs,
		Severity:       severity,
	}
}
