package listing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a status change is not an edge of the lifecycle.
	ErrInvalidTransition = errors.New("listing: invalid status transition")
	// ErrUnknownStatus is returned when a wire value is not a listing status.
	ErrUnknownStatus = errors.New("listing: unknown status")
)

// Status is the lifecycle state of a listing.
type Status uint8

const (
	StatusAvailable Status = iota
	StatusPending
	StatusSold
	StatusCompleted
	StatusCancelled

	statusCount
)

var statusNames = [...]string{
	StatusAvailable: "available",
	StatusPending:   "pending",
	StatusSold:      "sold",
	StatusCompleted: "completed",
	StatusCancelled: "cancelled",
}

// Fails to compile if a status is added without a wire name.
var _ = [1]struct{}{}[len(statusNames)-int(statusCount)]

// transitions lists every legal (from, to) edge. Anything absent is rejected.
var transitions = [statusCount][statusCount]bool{
	StatusAvailable: {StatusPending: true, StatusCancelled: true},
	StatusPending:   {StatusSold: true, StatusCancelled: true},
	StatusSold:      {StatusCompleted: true},
}

// Statuses returns every status in declaration order.
func Statuses() []Status {
	out := make([]Status, 0, statusCount)
	for s := Status(0); s < statusCount; s++ {
		out = append(out, s)
	}
	return out
}

// ParseStatus converts a persisted or transmitted value into a Status.
func ParseStatus(s string) (Status, error) {
	for i, name := range statusNames {
		if name == s {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
	return statusNames[s]
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	return s < statusCount
}

// CanTransition reports whether the lifecycle allows moving from s to target.
func (s Status) CanTransition(target Status) bool {
	if !s.Valid() || !target.Valid() {
		return false
	}
	return transitions[s][target]
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	if !s.Valid() {
		return false
	}
	for _, ok := range transitions[s] {
		if ok {
			return false
		}
	}
	return true
}

// MarshalText encodes the status as its wire name.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText decodes a wire name.
func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
