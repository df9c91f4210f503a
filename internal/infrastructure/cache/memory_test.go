package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		setup    func(*MemoryStore)
		expectOk bool
		expected string
	}{
		{
			name:     "empty store",
			setup:    func(*MemoryStore) {},
			expectOk: false,
		},
		{
			name: "valid entry",
			setup: func(s *MemoryStore) {
				_ = s.Set(ctx, "country:AR", []byte(`{"id":"AR"}`), time.Hour)
			},
			expectOk: true,
			expected: `{"id":"AR"}`,
		},
		{
			name: "expired entry",
			setup: func(s *MemoryStore) {
				_ = s.Set(ctx, "country:AR", []byte(`{"id":"AR"}`), -time.Hour)
			},
			expectOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			tt.setup(store)

			value, ok, err := store.Get(ctx, "country:AR")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.expectOk {
				t.Fatalf("expected ok %v, got %v", tt.expectOk, ok)
			}
			if string(value) != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, value)
			}
		})
	}
}

func TestMemoryStore_ExpiresWithClock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	_ = store.Set(ctx, "currency:ARS", []byte(`{}`), 24*time.Hour)

	now = now.Add(23 * time.Hour)
	if _, ok, _ := store.Get(ctx, "currency:ARS"); !ok {
		t.Fatal("expected entry to be valid before ttl")
	}

	now = now.Add(2 * time.Hour)
	if _, ok, _ := store.Get(ctx, "currency:ARS"); ok {
		t.Fatal("expected entry to expire after ttl")
	}
}

func TestMemoryStore_SetDropsExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_ = store.Set(ctx, "old", []byte("1"), -time.Second)
	_ = store.Set(ctx, "new", []byte("2"), time.Hour)

	if store.Len() != 1 {
		t.Errorf("expected expired entry to be dropped, got %d entries", store.Len())
	}
}

func TestMemoryStore_CopiesValue(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	value := []byte("abc")

	_ = store.Set(ctx, "k", value, time.Hour)
	value[0] = 'z'

	got, _, _ := store.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("expected stored copy 'abc', got %q", got)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set(ctx, "k", []byte("v"), time.Hour)
		}()
		go func() {
			defer wg.Done()
			_, _, _ = store.Get(ctx, "k")
		}()
	}

	wg.Wait()
}
