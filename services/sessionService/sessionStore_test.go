package sessionService

import (
	"context"
	"testing"
	"time"

	"github.com/STop211650/HyphynessTracker/models"
)

func assertEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore(15 * time.Minute)
	store.now = func() time.Time { return clock }

	err := store.Put(ctx, Session{
		ID:           "s1",
		OwnerID:      "owner",
		Bet:          models.ParsedBet{TicketNumber: "T-1", Status: models.StatusWon},
		CandidateIDs: []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, ok, err := store.Get(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("expected session, got ok=%v err=%v", ok, err)
	}
	assertEqual(t, "T-1", s.Bet.TicketNumber, "ticket")
	assertEqual(t, 2, len(s.CandidateIDs), "candidates")

	clock = clock.Add(16 * time.Minute)
	_, ok, _ = store.Get(ctx, "s1")
	assertEqual(t, false, ok, "expired session visible")
	assertEqual(t, 1, store.Sweep(ctx), "swept")
	assertEqual(t, 0, store.Sweep(ctx), "swept again")
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	_ = store.Put(ctx, Session{ID: "s1"})
	_ = store.Delete(ctx, "s1")
	_, ok, _ := store.Get(ctx, "s1")
	assertEqual(t, false, ok, "deleted session visible")
}
