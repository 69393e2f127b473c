package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/marketwire/internal/listing"
	"github.com/vovakirdan/marketwire/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGetListing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := s.CreateListing(ctx, listing.New("l1", "road bike", created)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetListing(ctx, "l1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != listing.StatusAvailable || got.Description != "road bike" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected listing: %+v", got)
	}
	if got.TransitionedAt != nil {
		t.Fatalf("expected no transition time")
	}

	if _, err := s.GetListing(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateDuplicateListing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateListing(ctx, listing.New("l1", "a", time.Now())); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateListing(ctx, listing.New("l1", "b", time.Now())); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestListListingsKeepsCreationOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	for _, id := range []string{"c", "a", "b"} {
		if err := s.CreateListing(ctx, listing.New(id, id, now)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	all, err := s.ListListings(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got string
	for _, l := range all {
		got += l.ID
	}
	if got != "cab" {
		t.Fatalf("expected cab, got %s", got)
	}
}

func TestUpdateListingStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	l := listing.New("l1", "sofa", time.Now())
	if err := s.CreateListing(ctx, l); err != nil {
		t.Fatalf("create: %v", err)
	}

	at := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)
	if err := l.Transition(listing.StatusPending, at); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := s.UpdateListingStatus(ctx, l, listing.StatusAvailable); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetListing(ctx, "l1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != listing.StatusPending || got.TransitionedAt == nil || !got.TransitionedAt.Equal(at) {
		t.Fatalf("unexpected listing after update: %+v", got)
	}

	// Stale "from" status is a conflict, not a silent overwrite.
	stale := *got
	stale.Status = listing.StatusCancelled
	if err := s.UpdateListingStatus(ctx, &stale, listing.StatusAvailable); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	ghost := listing.New("ghost", "", time.Now())
	if err := s.UpdateListingStatus(ctx, ghost, listing.StatusAvailable); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
