package customer

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter holds search, date-range, sorting, and pagination options for
// customer list queries. Zero values mean "no constraint".
type Filter struct {
	Query         string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	SortBy        string
	SortDir       string
	Page          int
	PageSize      int
}

// Repository defines the persistence interface for customers. All reads
// exclude soft-deleted rows. The store-level partial unique index on email
// is the authoritative uniqueness guard; ExistsByEmail is a pre-check that
// exists only to produce a better error message.
type Repository interface {
	// FindByID finds an active customer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByEmail finds an active customer by email
	FindByEmail(ctx context.Context, email string) (*Customer, error)

	// FindByIDs finds active customers matching the given IDs; IDs without
	// a matching active row are silently absent from the result
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Customer, error)

	// Search finds active customers matching the filter and returns the
	// matching page plus the total count before pagination
	Search(ctx context.Context, filter Filter) ([]Customer, int64, error)

	// ExistsByEmail reports whether an active customer with the email exists
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Insert persists a new customer
	Insert(ctx context.Context, c *Customer) error

	// Update persists changes to an existing customer
	Update(ctx context.Context, c *Customer) error

	// SoftDelete marks the given customers deleted in a single statement.
	// Returns the number of rows affected.
	SoftDelete(ctx context.Context, ids []uuid.UUID) (int64, error)
}
