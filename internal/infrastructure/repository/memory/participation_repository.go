package memory

import (
	"context"
	"sort"

	"github.com/goldenstat/identity/internal/domain/identity"
	"github.com/goldenstat/identity/internal/domain/participation"
)

type ParticipationRepository struct {
	store *Store
}

func NewParticipationRepository(store *Store) *ParticipationRepository {
	return &ParticipationRepository{store: store}
}

type summaryKey struct {
	playerID int64
	teamName string
	division string
	season   string
}

func (r *ParticipationRepository) SummarizeByPlayerName(_ context.Context, name string) ([]identity.ActivityRow, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	grouped := make(map[summaryKey]*identity.ActivityRow)
	seenSubMatches := make(map[summaryKey]map[int64]struct{})

	for _, fact := range r.store.facts {
		p, ok := r.store.players[fact.playerID]
		if !ok || p.Name != name {
			continue
		}
		teamName, m, ok := r.store.teamNameFor(fact.subMatchID, fact.teamNumber)
		if !ok {
			continue
		}

		key := summaryKey{playerID: p.ID, teamName: teamName, division: m.Division, season: m.Season}
		row, ok := grouped[key]
		if !ok {
			grouped[key] = &identity.ActivityRow{
				PlayerID:   p.ID,
				PlayerName: p.Name,
				TeamName:   teamName,
				Division:   m.Division,
				Season:     m.Season,
				DateStart:  m.MatchDate,
				DateEnd:    m.MatchDate,
			}
			seenSubMatches[key] = map[int64]struct{}{}
			row = grouped[key]
		}
		if m.MatchDate.Before(row.DateStart) {
			row.DateStart = m.MatchDate
		}
		if m.MatchDate.After(row.DateEnd) {
			row.DateEnd = m.MatchDate
		}
		if _, seen := seenSubMatches[key][fact.subMatchID]; !seen {
			seenSubMatches[key][fact.subMatchID] = struct{}{}
			row.MatchCount++
		}
	}

	keys := make([]summaryKey, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.playerID != b.playerID {
			return a.playerID < b.playerID
		}
		if a.teamName != b.teamName {
			return a.teamName < b.teamName
		}
		if a.division != b.division {
			return a.division < b.division
		}
		return a.season < b.season
	})

	out := make([]identity.ActivityRow, 0, len(keys))
	for _, key := range keys {
		out = append(out, *grouped[key])
	}
	return out, nil
}

func (r *ParticipationRepository) ListRefsByPlayer(_ context.Context, playerID int64) ([]participation.FactRef, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []participation.FactRef
	for _, fact := range r.store.facts {
		if fact.playerID != playerID {
			continue
		}
		teamName, m, ok := r.store.teamNameFor(fact.subMatchID, fact.teamNumber)
		if !ok {
			continue
		}
		out = append(out, participation.FactRef{
			SubMatchID: fact.subMatchID,
			TeamNumber: fact.teamNumber,
			TeamName:   teamName,
			Division:   m.Division,
			Season:     m.Season,
			MatchDate:  m.MatchDate,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MatchDate.Equal(out[j].MatchDate) {
			return out[i].MatchDate.Before(out[j].MatchDate)
		}
		return out[i].SubMatchID < out[j].SubMatchID
	})
	return out, nil
}

func (r *ParticipationRepository) ListNamesWithActivity(_ context.Context, minMatches int) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	subMatchesByName := make(map[string]map[int64]struct{})
	for _, fact := range r.store.facts {
		p, ok := r.store.players[fact.playerID]
		if !ok {
			continue
		}
		if _, ok := subMatchesByName[p.Name]; !ok {
			subMatchesByName[p.Name] = map[int64]struct{}{}
		}
		subMatchesByName[p.Name][fact.subMatchID] = struct{}{}
	}

	var names []string
	for name, subMatches := range subMatchesByName {
		if len(subMatches) >= minMatches {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *ParticipationRepository) Exists(_ context.Context, subMatchID, playerID int64, teamNumber int) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.factExistsLocked(subMatchID, playerID, teamNumber), nil
}

func (r *ParticipationRepository) ListDuplicates(_ context.Context) ([]participation.DuplicateFact, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	counts := make(map[participation.Fact]int)
	for _, fact := range r.store.facts {
		counts[participation.Fact{
			SubMatchID: fact.subMatchID,
			PlayerID:   fact.playerID,
			TeamNumber: fact.teamNumber,
		}]++
	}

	var out []participation.DuplicateFact
	for fact, count := range counts {
		if count > 1 {
			out = append(out, participation.DuplicateFact{Fact: fact, Count: count})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubMatchID != out[j].SubMatchID {
			return out[i].SubMatchID < out[j].SubMatchID
		}
		if out[i].PlayerID != out[j].PlayerID {
			return out[i].PlayerID < out[j].PlayerID
		}
		return out[i].TeamNumber < out[j].TeamNumber
	})
	return out, nil
}
