package memory

import (
	"context"

	"github.com/goldenstat/identity/internal/domain/mapping"
	"github.com/goldenstat/identity/internal/domain/participation"
	"github.com/goldenstat/identity/internal/usecase"
)

// TxManager implements usecase.TxManager by holding the store lock for the
// whole callback and restoring a snapshot when it fails.
type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

func (m *TxManager) Atomic(_ context.Context, fn func(ops usecase.TxOps) error) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	factsSnapshot := append([]factRow(nil), m.store.facts...)
	mappingsSnapshot := make(map[int64]mapping.Mapping, len(m.store.mappings))
	for id, mp := range m.store.mappings {
		mappingsSnapshot[id] = mp
	}

	if err := fn(&txOps{store: m.store}); err != nil {
		m.store.facts = factsSnapshot
		m.store.mappings = mappingsSnapshot
		return err
	}
	return nil
}

type txOps struct {
	store *Store
}

func (o *txOps) ListFacts(_ context.Context, subMatchID, playerID int64) ([]participation.Fact, error) {
	var out []participation.Fact
	for _, fact := range o.store.facts {
		if fact.subMatchID == subMatchID && fact.playerID == playerID {
			out = append(out, participation.Fact{
				SubMatchID: fact.subMatchID,
				PlayerID:   fact.playerID,
				TeamNumber: fact.teamNumber,
			})
		}
	}
	return out, nil
}

func (o *txOps) FactExists(_ context.Context, subMatchID, playerID int64, teamNumber int) (bool, error) {
	return o.store.factExistsLocked(subMatchID, playerID, teamNumber), nil
}

func (o *txOps) ReassignFact(_ context.Context, subMatchID, fromPlayerID, toPlayerID int64, teamNumber int) error {
	for i, fact := range o.store.facts {
		if fact.subMatchID == subMatchID && fact.playerID == fromPlayerID && fact.teamNumber == teamNumber {
			o.store.facts[i].playerID = toPlayerID
		}
	}
	return nil
}

func (o *txOps) DeleteDuplicateFacts(_ context.Context, f participation.Fact) (int64, error) {
	keepID := int64(-1)
	for _, fact := range o.store.facts {
		if fact.subMatchID != f.SubMatchID || fact.playerID != f.PlayerID || fact.teamNumber != f.TeamNumber {
			continue
		}
		if keepID == -1 || fact.id < keepID {
			keepID = fact.id
		}
	}
	if keepID == -1 {
		return 0, nil
	}

	var removed int64
	kept := o.store.facts[:0]
	for _, fact := range o.store.facts {
		match := fact.subMatchID == f.SubMatchID && fact.playerID == f.PlayerID && fact.teamNumber == f.TeamNumber
		if match && fact.id != keepID {
			removed++
			continue
		}
		kept = append(kept, fact)
	}
	o.store.facts = kept
	return removed, nil
}

func (o *txOps) MarkMappingApplied(_ context.Context, id int64, teamNumbers []int) error {
	if m, ok := o.store.mappings[id]; ok {
		m.Status = mapping.StatusApplied
		m.AppliedTeamNumbers = append([]int(nil), teamNumbers...)
		o.store.mappings[id] = m
	}
	return nil
}

func (o *txOps) DeleteMapping(_ context.Context, id int64) error {
	delete(o.store.mappings, id)
	return nil
}
