package cache

import (
	"testing"
	"time"

	"github.com/tikscope/tikscope/models"
)

func TestKey_NormalizesCase(t *testing.T) {
	if Key("Alice") != Key("  alice ") {
		t.Error("keys for the same handle differ by case or whitespace")
	}
}

func TestCache_HitWithinMaxAge(t *testing.T) {
	c := New(10)
	snap := &models.AccountSnapshot{Username: "alice", Followers: 100}
	c.Set(Key("alice"), snap)

	got, hit := c.Get(Key("ALICE"), 60)
	if !hit {
		t.Fatal("expected cache hit")
	}
	if got.Followers != 100 {
		t.Errorf("cached followers = %d, want 100", got.Followers)
	}
}

func TestCache_ZeroMaxAgeSkipsLookup(t *testing.T) {
	c := New(10)
	c.Set(Key("alice"), &models.AccountSnapshot{Username: "alice"})

	if _, hit := c.Get(Key("alice"), 0); hit {
		t.Error("maxAge 0 must force a fresh scrape")
	}
}

func TestCache_ExpiredEntryMisses(t *testing.T) {
	c := New(10)
	key := Key("alice")
	c.Set(key, &models.AccountSnapshot{Username: "alice"})

	c.mu.Lock()
	c.store[key].createdAt = time.Now().Add(-2 * time.Minute)
	c.mu.Unlock()

	if _, hit := c.Get(key, 60); hit {
		t.Error("entry older than maxAge served as a hit")
	}
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c := New(2)
	c.Set("a", &models.AccountSnapshot{})
	c.Set("b", &models.AccountSnapshot{})
	c.Set("c", &models.AccountSnapshot{})

	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.store) > 2 {
		t.Errorf("cache grew past capacity: %d entries", len(c.store))
	}
}
