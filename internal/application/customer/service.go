package customer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custdash/backend/internal/domain/customer"
	"github.com/custdash/backend/internal/domain/shared"
	"github.com/custdash/backend/internal/infrastructure/cache"
)

// MissingCustomersError is returned by BulkDelete when any requested id
// does not resolve to a live customer. The whole batch is rejected.
type MissingCustomersError struct {
	IDs []uuid.UUID
}

func (e *MissingCustomersError) Error() string {
	return fmt.Sprintf("customers not found: %d of the requested ids do not exist", len(e.IDs))
}

// Service orchestrates customer operations: validation, persistence,
// cache maintenance and event notification. Every mutation follows the
// same order: persist, invalidate caches, then notify listeners, so a
// notified client re-reading through the API never sees pre-mutation
// cached state.
type Service struct {
	repo     customer.Repository
	cache    *cache.CustomerCache
	notifier customer.Notifier
	logger   *zap.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithNotifier sets the notifier for mutation events
func WithNotifier(n customer.Notifier) ServiceOption {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithServiceLogger sets the service logger
func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new customer Service
func NewService(repo customer.Repository, customerCache *cache.CustomerCache, opts ...ServiceOption) *Service {
	s := &Service{
		repo:     repo,
		cache:    customerCache,
		notifier: customer.NopNotifier{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create creates a new customer. Sensitive fields submitted by public
// callers are silently dropped before anything is persisted.
func (s *Service) Create(ctx context.Context, req CreateRequest, mode customer.Visibility) (*View, error) {
	req.Sanitize(mode)
	email := strings.ToLower(req.Email)

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrEmailConflict
	}

	c, err := customer.NewCustomer(req.FullName, email, req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if req.NationalID != nil {
		if err := c.SetNationalID(req.NationalID); err != nil {
			return nil, err
		}
	}
	if req.InternalNotes != nil {
		c.SetInternalNotes(req.InternalNotes)
	}

	// The partial unique index is the authority on email uniqueness; the
	// pre-check above only provides a friendlier fast path.
	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, err
	}

	s.cache.InvalidateForMutation(ctx)
	s.notifier.CustomerCreated(customer.NewSummary(c))

	view := Project(c, mode)
	return &view, nil
}

// List returns one page of customers matching the query, serving from
// the version-keyed list cache when possible.
func (s *Service) List(ctx context.Context, query ListQuery, mode customer.Visibility) (*ListResult, error) {
	query.Normalize()

	key, err := s.cache.ListKey(ctx, query.CacheParams(), mode)
	if err != nil {
		s.logger.Warn("list cache key unavailable, bypassing cache", zap.Error(err))
	} else {
		var cached ListResult
		if s.cache.GetList(ctx, key, &cached) {
			return &cached, nil
		}
	}

	customers, total, err := s.repo.Search(ctx, query.Filter())
	if err != nil {
		return nil, err
	}

	result := &ListResult{
		Items: ProjectList(customers, mode),
		Meta:  NewMeta(query.Page, query.PageSize, total),
	}

	if key != "" {
		s.cache.SetList(ctx, key, result)
	}
	return result, nil
}

// Get returns a single customer projected for the given visibility mode
func (s *Service) Get(ctx context.Context, id uuid.UUID, mode customer.Visibility) (*View, error) {
	var cached View
	if s.cache.GetDetail(ctx, id, mode, &cached) {
		return &cached, nil
	}

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := Project(c, mode)
	s.cache.SetDetail(ctx, id, mode, view)
	return &view, nil
}

// Update applies a partial update to a customer. Nil request fields are
// left unchanged; sensitive fields from public callers are dropped.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest, mode customer.Visibility) (*View, error) {
	req.Sanitize(mode)

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.ToLower(*req.Email)
		if email != c.Email {
			exists, err := s.repo.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, shared.ErrEmailConflict
			}
		}
		if err := c.SetEmail(email); err != nil {
			return nil, err
		}
	}
	if req.FullName != nil {
		if err := c.SetFullName(*req.FullName); err != nil {
			return nil, err
		}
	}
	if req.PhoneNumber != nil {
		if err := c.SetPhoneNumber(*req.PhoneNumber); err != nil {
			return nil, err
		}
	}
	if req.NationalID != nil {
		if err := c.SetNationalID(req.NationalID); err != nil {
			return nil, err
		}
	}
	if req.InternalNotes != nil {
		c.SetInternalNotes(req.InternalNotes)
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.cache.InvalidateForMutation(ctx, id)
	s.notifier.CustomerUpdated(customer.NewSummary(c))

	view := Project(c, mode)
	return &view, nil
}

// Delete soft-deletes a single customer
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.SoftDelete(ctx, []uuid.UUID{id})
	if err != nil {
		return err
	}
	if affected == 0 {
		return shared.ErrNotFound
	}

	s.cache.InvalidateForMutation(ctx, id)
	s.notifier.CustomerDeleted(id)
	return nil
}

// BulkDelete soft-deletes a batch of customers. The operation is
// all-or-nothing: if any id does not resolve to a live customer, nothing
// is deleted and the missing ids are reported.
func (s *Service) BulkDelete(ctx context.Context, ids []uuid.UUID) (*BulkDeleteResult, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "No customer ids provided")
	}

	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	existing := make(map[uuid.UUID]bool, len(found))
	for i := range found {
		existing[found[i].ID] = true
	}

	var missing []uuid.UUID
	for _, id := range ids {
		if !existing[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingCustomersError{IDs: missing}
	}

	affected, err := s.repo.SoftDelete(ctx, ids)
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateForMutation(ctx, ids...)
	s.notifier.CustomersBulkDeleted(ids)

	return &BulkDeleteResult{Deleted: affected, IDs: ids}, nil
}

// dedupe removes duplicate ids while preserving order
func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
