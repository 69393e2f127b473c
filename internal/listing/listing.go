package listing

import (
	"fmt"
	"time"
)

// Listing is an item offered for sale.
// CreatedAt and Description never change once the listing exists.
type Listing struct {
	ID             string
	Status         Status
	Description    string
	CreatedAt      time.Time
	TransitionedAt *time.Time
}

// New creates an available listing.
func New(id, description string, now time.Time) *Listing {
	return &Listing{
		ID:          id,
		Status:      StatusAvailable,
		Description: description,
		CreatedAt:   now,
	}
}

// Transition moves the listing to target. On error the listing is left untouched.
func (l *Listing) Transition(target Status, now time.Time) error {
	if !l.Status.CanTransition(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.Status, target)
	}
	l.Status = target
	l.TransitionedAt = &now
	return nil
}
