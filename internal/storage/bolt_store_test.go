package storage

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func openTestStore(t *testing.T, opts Options) (*boltStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	store, err := openBolt(filepath.Join(t.TempDir(), "nested", "items.db"), normalizeOptions(opts), clock.Now)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, clock
}

func TestBoltStoreMarksAndExpiresItems(t *testing.T) {
	store, clock := openTestStore(t, Options{ItemTTL: time.Minute, CleanupInterval: time.Hour})

	seen, err := store.SeenItem("id1")
	if err != nil || seen {
		t.Fatalf("expected unseen item, seen=%v err=%v", seen, err)
	}

	if err := store.MarkItem("id1"); err != nil {
		t.Fatalf("MarkItem: %v", err)
	}

	seen, err = store.SeenItem("id1")
	if err != nil || !seen {
		t.Fatalf("expected item marked as seen, got seen=%v err=%v", seen, err)
	}

	clock.Advance(2 * time.Minute)

	seen, err = store.SeenItem("id1")
	if err != nil {
		t.Fatalf("SeenItem after expiry: %v", err)
	}
	if seen {
		t.Fatalf("expected entry to expire")
	}
	if n, _ := store.count(); n != 0 {
		t.Fatalf("expected expired entry to be deleted on lookup, %d left", n)
	}
}

func TestBoltStoreCleanupSweepsExpiredEntries(t *testing.T) {
	store, clock := openTestStore(t, Options{ItemTTL: time.Minute, CleanupInterval: 10 * time.Minute})

	for _, id := range []string{"a", "b", "c"} {
		if err := store.MarkItem(id); err != nil {
			t.Fatalf("MarkItem(%s): %v", id, err)
		}
	}

	clock.Advance(5 * time.Minute)
	if err := store.MarkItem("fresh"); err != nil {
		t.Fatalf("MarkItem(fresh): %v", err)
	}
	if n, _ := store.count(); n != 4 {
		t.Fatalf("expected no sweep before cleanup interval, got %d keys", n)
	}

	clock.Advance(6 * time.Minute)
	if _, err := store.SeenItem("unrelated"); err != nil {
		t.Fatalf("SeenItem: %v", err)
	}
	// "fresh" expired too by now: 11m since a-c, 6m since fresh, TTL 1m.
	if n, _ := store.count(); n != 0 {
		t.Fatalf("expected sweep to remove all expired keys, got %d", n)
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.db")
	opts := normalizeOptions(Options{})

	first, err := openBolt(path, opts, time.Now)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	if err := first.MarkItem("keep"); err != nil {
		t.Fatalf("MarkItem: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := openBolt(path, opts, time.Now)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	seen, err := second.SeenItem("keep")
	if err != nil || !seen {
		t.Fatalf("expected persisted item, seen=%v err=%v", seen, err)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.MarkItem("x"); err != nil {
		t.Fatalf("noop store MarkItem: %v", err)
	}
	if seen, _ := store.SeenItem("x"); seen {
		t.Fatalf("noop store should never report items as seen")
	}
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for empty bbolt path")
	}
	if _, err := NewStore("redis", "x", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
