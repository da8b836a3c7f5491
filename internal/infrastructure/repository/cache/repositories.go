package cache

import (
	"context"
	"strconv"

	"github.com/goldenstat/identity/internal/domain/mapping"
	"github.com/goldenstat/identity/internal/domain/player"
	basecache "github.com/goldenstat/identity/internal/platform/cache"
)

// PlayerRepository caches name and id lookups. Player rows never change
// through this service, so entries only age out via TTL.
type PlayerRepository struct {
	next  player.Repository
	cache *basecache.Store
}

func NewPlayerRepository(next player.Repository, cache *basecache.Store) *PlayerRepository {
	return &PlayerRepository{next: next, cache: cache}
}

func (r *PlayerRepository) GetByName(ctx context.Context, name string) ([]player.Player, error) {
	key := "player:name:" + name
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		return append([]player.Player(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]player.Player)
	return append([]player.Player(nil), items...), nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (player.Player, bool, error) {
	key := "player:id:" + strconv.FormatInt(id, 10)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return cachedPlayerByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return player.Player{}, false, err
	}

	cached, _ := v.(cachedPlayerByID)
	return cached.value, cached.exists, nil
}

// ListByNamePattern is not cached: pattern scans are operator-driven and rare.
func (r *PlayerRepository) ListByNamePattern(ctx context.Context, pattern string) ([]player.Player, error) {
	return r.next.ListByNamePattern(ctx, pattern)
}

type cachedPlayerByID struct {
	value  player.Player
	exists bool
}

// MappingRepository caches the resolve-path target lookup and drops the
// cached targets whenever any mapping row changes.
type MappingRepository struct {
	next  mapping.Repository
	cache *basecache.Store
}

func NewMappingRepository(next mapping.Repository, cache *basecache.Store) *MappingRepository {
	return &MappingRepository{next: next, cache: cache}
}

func (r *MappingRepository) TargetIDsForName(ctx context.Context, name string) ([]int64, error) {
	key := "mapping:targets:" + name
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		ids, err := r.next.TargetIDsForName(ctx, name)
		if err != nil {
			return nil, err
		}
		return append([]int64(nil), ids...), nil
	})
	if err != nil {
		return nil, err
	}

	ids, _ := v.([]int64)
	return append([]int64(nil), ids...), nil
}

func (r *MappingRepository) InsertIfAbsent(ctx context.Context, m mapping.Mapping) (bool, error) {
	inserted, err := r.next.InsertIfAbsent(ctx, m)
	if inserted {
		r.invalidateTargets(ctx)
	}
	return inserted, err
}

func (r *MappingRepository) UpdateStatus(ctx context.Context, id int64, status mapping.Status) (bool, error) {
	updated, err := r.next.UpdateStatus(ctx, id, status)
	if updated {
		r.invalidateTargets(ctx)
	}
	return updated, err
}

func (r *MappingRepository) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := r.next.Delete(ctx, id)
	if deleted {
		r.invalidateTargets(ctx)
	}
	return deleted, err
}

func (r *MappingRepository) GetByID(ctx context.Context, id int64) (mapping.Mapping, bool, error) {
	return r.next.GetByID(ctx, id)
}

func (r *MappingRepository) List(ctx context.Context) ([]mapping.Mapping, error) {
	return r.next.List(ctx)
}

func (r *MappingRepository) ListByStatus(ctx context.Context, status mapping.Status) ([]mapping.Mapping, error) {
	return r.next.ListByStatus(ctx, status)
}

func (r *MappingRepository) invalidateTargets(ctx context.Context) {
	r.cache.DeletePrefix(ctx, "mapping:targets:")
}
