package listing

import "time"

// StatusChanged is recorded whenever a listing moves along its lifecycle.
type StatusChanged struct {
	ListingID string
	From      Status
	To        Status
	At        time.Time
}

func (e StatusChanged) EventName() string     { return "listing.status_changed" }
func (e StatusChanged) AggregateID() string   { return e.ListingID }
func (e StatusChanged) OccurredAt() time.Time { return e.At }
