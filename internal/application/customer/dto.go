package customer

import (
	"time"

	"github.com/google/uuid"

	"github.com/custdash/backend/internal/domain/customer"
)

// =============================================================================
// Requests
// =============================================================================

// CreateRequest represents a request to create a new customer
type CreateRequest struct {
	FullName      string  `json:"full_name" binding:"required,min=1,max=255"`
	Email         string  `json:"email" binding:"required,email,max=255"`
	PhoneNumber   string  `json:"phone_number" binding:"required,min=7,max=50"`
	NationalID    *string `json:"national_id" binding:"omitempty,max=100"`
	InternalNotes *string `json:"internal_notes"`
}

// UpdateRequest represents a partial update to a customer. Nil fields
// are left unchanged.
type UpdateRequest struct {
	FullName      *string `json:"full_name" binding:"omitempty,min=1,max=255"`
	Email         *string `json:"email" binding:"omitempty,email,max=255"`
	PhoneNumber   *string `json:"phone_number" binding:"omitempty,min=7,max=50"`
	NationalID    *string `json:"national_id" binding:"omitempty,max=100"`
	InternalNotes *string `json:"internal_notes"`
}

// HasSensitiveFields reports whether the request carries any
// internal-only fields.
func (r *CreateRequest) HasSensitiveFields() bool {
	return r.NationalID != nil || r.InternalNotes != nil
}

// Sanitize strips sensitive fields from the request unless the caller
// operates in internal mode. A public caller submitting national_id or
// internal_notes has them silently dropped rather than rejected.
func (r *CreateRequest) Sanitize(mode customer.Visibility) {
	if mode.IsInternal() {
		return
	}
	r.NationalID = nil
	r.InternalNotes = nil
}

// Sanitize strips sensitive fields from the request unless the caller
// operates in internal mode.
func (r *UpdateRequest) Sanitize(mode customer.Visibility) {
	if mode.IsInternal() {
		return
	}
	r.NationalID = nil
	r.InternalNotes = nil
}

// ListQuery holds the list endpoint's query parameters after parsing
type ListQuery struct {
	Q             string     `form:"q"`
	CreatedAfter  *time.Time `form:"created_after" time_format:"2006-01-02T15:04:05Z07:00"`
	CreatedBefore *time.Time `form:"created_before" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy        string     `form:"sort_by"`
	SortDir       string     `form:"sort_dir"`
	Page          int        `form:"page"`
	PageSize      int        `form:"page_size"`
}

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

// Normalize clamps pagination to sane bounds and fills defaults
func (q *ListQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = defaultPage
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	if q.SortBy == "" {
		q.SortBy = "created_at"
	}
	if q.SortDir == "" {
		q.SortDir = "desc"
	}
}

// CacheParams returns the canonical parameter map used to fingerprint
// this query for the list cache. All fields participate: any difference
// in filters, sorting, or pagination must land on a different cache key.
func (q *ListQuery) CacheParams() map[string]any {
	params := map[string]any{
		"q":         q.Q,
		"sort_by":   q.SortBy,
		"sort_dir":  q.SortDir,
		"page":      q.Page,
		"page_size": q.PageSize,
	}
	if q.CreatedAfter != nil {
		params["created_after"] = q.CreatedAfter.UTC().Format(time.RFC3339Nano)
	}
	if q.CreatedBefore != nil {
		params["created_before"] = q.CreatedBefore.UTC().Format(time.RFC3339Nano)
	}
	return params
}

// Filter converts the query into a domain repository filter
func (q *ListQuery) Filter() customer.Filter {
	return customer.Filter{
		Query:         q.Q,
		CreatedAfter:  q.CreatedAfter,
		CreatedBefore: q.CreatedBefore,
		SortBy:        q.SortBy,
		SortDir:       q.SortDir,
		Page:          q.Page,
		PageSize:      q.PageSize,
	}
}

// BulkDeleteRequest represents a request to delete several customers at once
type BulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1,dive,required"`
}

// =============================================================================
// Responses
// =============================================================================

// SensitiveFields holds the internal-only projection of a customer.
// It is embedded as a pointer so that public projections omit the keys
// entirely instead of emitting nulls.
type SensitiveFields struct {
	NationalID    *string `json:"national_id"`
	InternalNotes *string `json:"internal_notes"`
}

// View is a customer projection shaped for one visibility mode
type View struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	*SensitiveFields
}

// Project builds the customer view for the given visibility mode.
// Public projections carry no trace of sensitive fields.
func Project(c *customer.Customer, mode customer.Visibility) View {
	view := View{
		ID:          c.ID,
		FullName:    c.FullName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if mode.IsInternal() {
		view.SensitiveFields = &SensitiveFields{
			NationalID:    c.NationalID,
			InternalNotes: c.InternalNotes,
		}
	}
	return view
}

// ProjectList builds views for a slice of customers
func ProjectList(customers []customer.Customer, mode customer.Visibility) []View {
	views := make([]View, len(customers))
	for i := range customers {
		views[i] = Project(&customers[i], mode)
	}
	return views
}

// Meta describes the pagination of a list result
type Meta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// ListResult is the list endpoint's payload: one page of views plus
// pagination metadata.
type ListResult struct {
	Items []View `json:"items"`
	Meta  Meta   `json:"meta"`
}

// NewMeta computes pagination metadata for a total row count
func NewMeta(page, pageSize int, total int64) Meta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return Meta{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// BulkDeleteResult reports how many customers a bulk delete removed
type BulkDeleteResult struct {
	Deleted int64       `json:"deleted"`
	IDs     []uuid.UUID `json:"ids"`
}
