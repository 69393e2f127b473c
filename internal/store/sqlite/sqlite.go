package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/marketwire/internal/listing"
	"github.com/vovakirdan/marketwire/internal/store"
)

// Schema creates the tables used by SQLiteStore.
const Schema = `
CREATE TABLE IF NOT EXISTS listings (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	id              TEXT NOT NULL UNIQUE,
	status          TEXT NOT NULL,
	description     TEXT NOT NULL,
	created_at      DATETIME NOT NULL,
	transitioned_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies Schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema against ":memory:".
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateListing persists a new listing.
func (s *SQLiteStore) CreateListing(ctx context.Context, l *listing.Listing) error {
	query := `
		INSERT INTO listings (id, status, description, created_at, transitioned_at)
		VALUES (?, ?, ?, ?, ?)
	`
	var transitioned sql.NullTime
	if l.TransitionedAt != nil {
		transitioned = sql.NullTime{Time: l.TransitionedAt.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query, l.ID, l.Status.String(), l.Description, l.CreatedAt.UTC(), transitioned)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("insert listing %s: %w", l.ID, store.ErrDuplicate)
		}
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

// GetListing retrieves a listing by ID.
func (s *SQLiteStore) GetListing(ctx context.Context, id string) (*listing.Listing, error) {
	query := `
		SELECT id, status, description, created_at, transitioned_at
		FROM listings
		WHERE id = ?
	`
	l, err := scanListing(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("listing %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query listing: %w", err)
	}
	return l, nil
}

// ListListings returns every listing in creation order.
func (s *SQLiteStore) ListListings(ctx context.Context) ([]*listing.Listing, error) {
	query := `
		SELECT id, status, description, created_at, transitioned_at
		FROM listings
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var out []*listing.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return out, nil
}

// UpdateListingStatus stores the new status if the row still has status from.
func (s *SQLiteStore) UpdateListingStatus(ctx context.Context, l *listing.Listing, from listing.Status) error {
	query := `
		UPDATE listings
		SET status = ?, transitioned_at = ?
		WHERE id = ? AND status = ?
	`
	var transitioned sql.NullTime
	if l.TransitionedAt != nil {
		transitioned = sql.NullTime{Time: l.TransitionedAt.UTC(), Valid: true}
	}

	result, err := s.db.ExecContext(ctx, query, l.Status.String(), transitioned, l.ID, from.String())
	if err != nil {
		return fmt.Errorf("update listing status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	if _, err := s.GetListing(ctx, l.ID); err != nil {
		return err
	}
	return fmt.Errorf("listing %s: %w", l.ID, store.ErrConflict)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*listing.Listing, error) {
	var (
		l            listing.Listing
		status       string
		transitioned sql.NullTime
	)
	if err := row.Scan(&l.ID, &status, &l.Description, &l.CreatedAt, &transitioned); err != nil {
		return nil, err
	}

	parsed, err := listing.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	l.Status = parsed
	if transitioned.Valid {
		t := transitioned.Time
		l.TransitionedAt = &t
	}
	return &l, nil
}

var _ store.Store = (*SQLiteStore)(nil)
