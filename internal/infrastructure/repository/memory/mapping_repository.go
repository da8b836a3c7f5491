package memory

import (
	"context"
	"sort"
	"time"

	"github.com/goldenstat/identity/internal/domain/mapping"
)

type MappingRepository struct {
	store *Store
}

func NewMappingRepository(store *Store) *MappingRepository {
	return &MappingRepository{store: store}
}

func (r *MappingRepository) InsertIfAbsent(_ context.Context, m mapping.Mapping) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.mappings {
		if existing.SubMatchID == m.SubMatchID && existing.OriginalPlayerID == m.OriginalPlayerID {
			return false, nil
		}
	}

	r.store.nextMappingID++
	m.ID = r.store.nextMappingID
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	r.store.mappings[m.ID] = m
	return true, nil
}

func (r *MappingRepository) GetByID(_ context.Context, id int64) (mapping.Mapping, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	m, ok := r.store.mappings[id]
	return m, ok, nil
}

func (r *MappingRepository) List(_ context.Context) ([]mapping.Mapping, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.listLocked(func(mapping.Mapping) bool { return true }), nil
}

func (r *MappingRepository) ListByStatus(_ context.Context, status mapping.Status) ([]mapping.Mapping, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.listLocked(func(m mapping.Mapping) bool { return m.Status == status }), nil
}

func (r *MappingRepository) UpdateStatus(_ context.Context, id int64, status mapping.Status) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	m, ok := r.store.mappings[id]
	if !ok {
		return false, nil
	}
	m.Status = status
	r.store.mappings[id] = m
	return true, nil
}

func (r *MappingRepository) Delete(_ context.Context, id int64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.mappings[id]; !ok {
		return false, nil
	}
	delete(r.store.mappings, id)
	return true, nil
}

func (r *MappingRepository) TargetIDsForName(_ context.Context, name string) ([]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	seen := make(map[int64]struct{})
	var ids []int64
	for _, m := range r.store.mappings {
		if m.CorrectPlayerName != name {
			continue
		}
		if m.Status != mapping.StatusConfirmed && m.Status != mapping.StatusApplied {
			continue
		}
		if _, ok := seen[m.CorrectPlayerID]; ok {
			continue
		}
		seen[m.CorrectPlayerID] = struct{}{}
		ids = append(ids, m.CorrectPlayerID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *MappingRepository) listLocked(keep func(mapping.Mapping) bool) []mapping.Mapping {
	var out []mapping.Mapping
	for _, m := range r.store.mappings {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
