package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketwire/internal/listing"
	"github.com/vovakirdan/marketwire/internal/store"
)

// ErrDescriptionRequired is returned when a listing is created without a description.
var ErrDescriptionRequired = errors.New("listings: description is required")

// Publisher announces listing lifecycle changes to other systems.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, ev listing.StatusChanged) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// PublishStatusChanged does nothing.
func (NopPublisher) PublishStatusChanged(context.Context, listing.StatusChanged) error { return nil }

// Service provides listing business logic on top of the store.
type Service struct {
	store     store.ListingStore
	publisher Publisher
	log       *zerolog.Logger
	now       func() time.Time
}

// New creates a listing service. A nil publisher disables event publishing.
func New(st store.ListingStore, publisher Publisher, logger *zerolog.Logger) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		store:     st,
		publisher: publisher,
		log:       logger,
		now:       time.Now,
	}
}

// Create stores a new available listing.
func (s *Service) Create(ctx context.Context, description string) (*listing.Listing, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}

	l := listing.New(uuid.NewString(), description, s.now().UTC())
	if err := s.store.CreateListing(ctx, l); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return l, nil
}

// Get returns one listing.
func (s *Service) Get(ctx context.Context, id string) (*listing.Listing, error) {
	return s.store.GetListing(ctx, id)
}

// Browse returns the listings matching f in creation order.
func (s *Service) Browse(ctx context.Context, f listing.Filter) ([]*listing.Listing, error) {
	all, err := s.store.ListListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listing.NewFilterIndex(listing.Slice(all)).Collect(f), nil
}

// Transition moves a listing to target and announces the change.
// Invalid transitions return listing.ErrInvalidTransition and change nothing.
func (s *Service) Transition(ctx context.Context, id string, target listing.Status) (*listing.Listing, error) {
	l, err := s.store.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}

	from := l.Status
	now := s.now().UTC()
	if err := l.Transition(target, now); err != nil {
		return nil, err
	}
	if err := s.store.UpdateListingStatus(ctx, l, from); err != nil {
		return nil, fmt.Errorf("save listing status: %w", err)
	}

	ev := listing.StatusChanged{ListingID: l.ID, From: from, To: target, At: now}
	if err := s.publisher.PublishStatusChanged(ctx, ev); err != nil {
		// The status is already stored; only the notification is lost.
		s.log.Warn().Err(err).Str("listing_id", l.ID).Str("event", ev.EventName()).Msg("failed to publish listing event")
	}

	s.log.Info().Str("listing_id", l.ID).Stringer("from", from).Stringer("to", target).Msg("listing status changed")
	return l, nil
}
