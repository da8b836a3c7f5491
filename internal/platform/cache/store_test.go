package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_SetGetDelete(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	ctx := context.Background()

	store.Set(ctx, "player:name:Peter Book", []int64{3})
	v, ok := store.Get(ctx, "player:name:Peter Book")
	if !ok {
		t.Fatalf("expected cached value")
	}
	if ids, _ := v.([]int64); len(ids) != 1 || ids[0] != 3 {
		t.Fatalf("unexpected cached value: %v", v)
	}

	store.Delete(ctx, "player:name:Peter Book")
	if _, ok := store.Get(ctx, "player:name:Peter Book"); ok {
		t.Fatalf("expected value to be deleted")
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	ctx := context.Background()

	store.Set(ctx, "mapping:targets:Roger Strömvall", []int64{1})
	store.Set(ctx, "mapping:targets:Johan Lindqvist", []int64{8})
	store.Set(ctx, "player:name:Peter Book", []int64{3})

	store.DeletePrefix(ctx, "mapping:targets:")

	if _, ok := store.Get(ctx, "mapping:targets:Roger Strömvall"); ok {
		t.Fatalf("expected mapping namespace to be dropped")
	}
	if _, ok := store.Get(ctx, "mapping:targets:Johan Lindqvist"); ok {
		t.Fatalf("expected mapping namespace to be dropped")
	}
	if _, ok := store.Get(ctx, "player:name:Peter Book"); !ok {
		t.Fatalf("expected other namespaces to survive")
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	t.Parallel()

	store := NewStore(10 * time.Millisecond)
	ctx := context.Background()

	store.Set(ctx, "k", "v")
	if _, ok := store.Get(ctx, "k"); !ok {
		t.Fatalf("expected fresh value")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatalf("expected value to expire")
	}
}

func TestStore_ZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	ctx := context.Background()

	store.Set(ctx, "k", "v")
	time.Sleep(10 * time.Millisecond)
	if _, ok := store.Get(ctx, "k"); !ok {
		t.Fatalf("expected value to stay cached without a ttl")
	}
}

func TestStore_GetOrLoad_CachesFirstResult(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "loaded", nil
	}

	for i := 0; i < 3; i++ {
		v, err := store.GetOrLoad(context.Background(), "k", loader)
		if err != nil {
			t.Fatalf("GetOrLoad: %v", err)
		}
		if v != "loaded" {
			t.Fatalf("unexpected value: %v", v)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader ran %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_CollapsesConcurrentLoads(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "loaded", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			if _, err := store.GetOrLoad(context.Background(), "same-key", loader); err != nil {
				t.Errorf("GetOrLoad: %v", err)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader ran %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32
	loadErr := errors.New("load failed")

	failing := func(context.Context) (any, error) {
		calls.Add(1)
		return nil, loadErr
	}

	if _, err := store.GetOrLoad(context.Background(), "k", failing); !errors.Is(err, loadErr) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", failing); !errors.Is(err, loadErr) {
		t.Fatalf("expected loader error on retry, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("loader ran %d times, want 2", got)
	}
}
