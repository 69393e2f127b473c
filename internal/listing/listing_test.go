package listing

import (
	"errors"
	"testing"
	"time"
)

func TestTransitionAllPairs(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusAvailable, StatusPending}:   true,
		{StatusAvailable, StatusCancelled}: true,
		{StatusPending, StatusSold}:        true,
		{StatusPending, StatusCancelled}:   true,
		{StatusSold, StatusCompleted}:      true,
	}

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(time.Hour)

	for _, from := range Statuses() {
		for _, to := range Statuses() {
			l := &Listing{ID: "l1", Status: from, Description: "lamp", CreatedAt: created}
			err := l.Transition(to, now)

			if allowed[[2]Status{from, to}] {
				if err != nil {
					t.Errorf("%s -> %s: unexpected error %v", from, to, err)
					continue
				}
				if l.Status != to {
					t.Errorf("%s -> %s: status is %s", from, to, l.Status)
				}
				if l.TransitionedAt == nil || !l.TransitionedAt.Equal(now) {
					t.Errorf("%s -> %s: transition time not recorded", from, to)
				}
				continue
			}

			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("%s -> %s: expected ErrInvalidTransition, got %v", from, to, err)
			}
			if l.Status != from || l.TransitionedAt != nil {
				t.Errorf("%s -> %s: listing mutated on failure: %+v", from, to, l)
			}
			if !l.CreatedAt.Equal(created) || l.Description != "lamp" {
				t.Errorf("%s -> %s: immutable fields changed", from, to)
			}
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range Statuses() {
		want := s == StatusCompleted || s == StatusCancelled
		if s.Terminal() != want {
			t.Errorf("%s: Terminal() = %v, want %v", s, s.Terminal(), want)
		}
	}
}

func TestNewListingStartsAvailable(t *testing.T) {
	l := New("l1", "bike", time.Now())
	if l.Status != StatusAvailable {
		t.Fatalf("expected available, got %s", l.Status)
	}
	if l.TransitionedAt != nil {
		t.Fatalf("new listing should have no transition time")
	}
}

func TestDecorationIsTotal(t *testing.T) {
	tests := []struct {
		status Status
		want   Glyph
	}{
		{StatusAvailable, GlyphNone},
		{StatusPending, GlyphNone},
		{StatusSold, GlyphNone},
		{StatusCompleted, GlyphClosed},
		{StatusCancelled, GlyphClosed},
	}
	if len(tests) != len(Statuses()) {
		t.Fatalf("table does not cover every status")
	}
	for _, tt := range tests {
		if got := tt.status.Decoration(); got != tt.want {
			t.Errorf("%s: Decoration() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses() {
		got, err := ParseStatus(s.String())
		if err != nil || got != s {
			t.Errorf("ParseStatus(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseStatus("archived"); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
}

func TestStatusText(t *testing.T) {
	var s Status
	if err := s.UnmarshalText([]byte("sold")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s != StatusSold {
		t.Fatalf("expected sold, got %s", s)
	}
	b, err := StatusCancelled.MarshalText()
	if err != nil || string(b) != "cancelled" {
		t.Fatalf("marshal: %q %v", b, err)
	}
	if _, err := Status(42).MarshalText(); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus for invalid status, got %v", err)
	}
}
