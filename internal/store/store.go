package store

import (
	"context"
	"errors"

	"github.com/vovakirdan/marketwire/internal/listing"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a listing changed status underneath the caller.
	ErrConflict = errors.New("store: listing status changed concurrently")
	// ErrDuplicate is returned when a listing id is already taken.
	ErrDuplicate = errors.New("store: duplicate id")
)

// ListingStore handles listing persistence.
type ListingStore interface {
	// CreateListing persists a new listing.
	CreateListing(ctx context.Context, l *listing.Listing) error

	// GetListing retrieves a listing by ID.
	GetListing(ctx context.Context, id string) (*listing.Listing, error)

	// ListListings returns every listing in creation order.
	ListListings(ctx context.Context) ([]*listing.Listing, error)

	// UpdateListingStatus stores l.Status and l.TransitionedAt, provided the
	// stored status still equals from.
	UpdateListingStatus(ctx context.Context, l *listing.Listing, from listing.Status) error
}

// Store aggregates all storage interfaces.
type Store interface {
	ListingStore

	// Close closes the underlying database connection.
	Close() error
}
