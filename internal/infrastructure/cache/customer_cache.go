package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/custdash/backend/internal/domain/customer"
)

const (
	versionKey   = "customers:version"
	listPrefix   = "customers:list"
	detailPrefix = "customers:byId"

	// fingerprintHexLen is the number of hex characters kept from the
	// parameter hash. Long enough to avoid collisions between realistic
	// filter combinations while keeping keys readable in Redis.
	fingerprintHexLen = 12

	defaultTTL = 60 * time.Second
)

// CustomerCache coordinates the two cache families for customer reads:
// version-keyed list results and per-customer detail entries, each
// partitioned by visibility mode so public callers can never observe
// internal projections.
type CustomerCache struct {
	store         Store
	ttl           time.Duration
	strictVersion bool
	disabled      bool
	logger        *zap.Logger
}

// CustomerCacheOption configures a CustomerCache
type CustomerCacheOption func(*CustomerCache)

// WithCacheEnabled turns caching off entirely when false: every read
// misses and writes and invalidations become no-ops.
func WithCacheEnabled(enabled bool) CustomerCacheOption {
	return func(c *CustomerCache) {
		c.disabled = !enabled
	}
}

// WithCacheTTL overrides the default entry TTL
func WithCacheTTL(ttl time.Duration) CustomerCacheOption {
	return func(c *CustomerCache) {
		c.ttl = ttl
	}
}

// WithStrictVersioning makes version bumps use the store's atomic
// Increment when available, so concurrent mutations cannot lose a bump.
func WithStrictVersioning(strict bool) CustomerCacheOption {
	return func(c *CustomerCache) {
		c.strictVersion = strict
	}
}

// WithCacheLogger sets the logger used for cache degradation warnings
func WithCacheLogger(logger *zap.Logger) CustomerCacheOption {
	return func(c *CustomerCache) {
		c.logger = logger
	}
}

// NewCustomerCache creates a cache coordinator over the given store
func NewCustomerCache(store Store, opts ...CustomerCacheOption) *CustomerCache {
	c := &CustomerCache{
		store:  store,
		ttl:    defaultTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentVersion returns the list-cache version, lazily initialising it to 1.
// The version key itself never expires.
func (c *CustomerCache) CurrentVersion(ctx context.Context) (int64, error) {
	raw, found, err := c.store.Get(ctx, versionKey)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache version: %w", err)
	}
	if found {
		version, parseErr := strconv.ParseInt(string(raw), 10, 64)
		if parseErr != nil {
			return 0, fmt.Errorf("corrupt cache version %q: %w", raw, parseErr)
		}
		return version, nil
	}

	if err := c.store.Set(ctx, versionKey, []byte("1"), 0); err != nil {
		return 0, fmt.Errorf("failed to initialise cache version: %w", err)
	}
	return 1, nil
}

// BumpVersion advances the list-cache version, orphaning every list entry
// built under the previous version. In strict mode the store's atomic
// Increment is used when available; otherwise a read-then-write bump is
// performed, which tolerates a lost increment under concurrent mutations
// (stale lists still expire via TTL).
func (c *CustomerCache) BumpVersion(ctx context.Context) (int64, error) {
	if c.strictVersion {
		if inc, ok := c.store.(Incrementer); ok {
			version, err := inc.Increment(ctx, versionKey)
			if err != nil {
				return 0, fmt.Errorf("failed to bump cache version: %w", err)
			}
			return version, nil
		}
		c.logger.Warn("strict versioning requested but store does not support atomic increment, falling back to read-then-write")
	}

	current, err := c.CurrentVersion(ctx)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := c.store.Set(ctx, versionKey, []byte(strconv.FormatInt(next, 10)), 0); err != nil {
		return 0, fmt.Errorf("failed to bump cache version: %w", err)
	}
	return next, nil
}

// ListKey builds the cache key for a list query under the current version.
// Two callers with the same filter and visibility always land on the same
// key regardless of how their parameters were ordered.
func (c *CustomerCache) ListKey(ctx context.Context, params map[string]any, mode customer.Visibility) (string, error) {
	if c.disabled {
		return "", nil
	}
	version, err := c.CurrentVersion(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d:%s:mode=%s", listPrefix, version, fingerprint(params), mode), nil
}

// DetailKey builds the cache key for a single customer in the given mode
func (c *CustomerCache) DetailKey(id uuid.UUID, mode customer.Visibility) string {
	return fmt.Sprintf("%s:%s:mode=%s", detailPrefix, id, mode)
}

// GetList reads a cached list result into dest. A cache read failure is
// logged and reported as a miss so the caller falls through to the database.
func (c *CustomerCache) GetList(ctx context.Context, key string, dest any) bool {
	return c.get(ctx, key, dest)
}

// SetList stores a list result under key with the configured TTL
func (c *CustomerCache) SetList(ctx context.Context, key string, value any) {
	c.set(ctx, key, value)
}

// GetDetail reads a cached detail projection into dest
func (c *CustomerCache) GetDetail(ctx context.Context, id uuid.UUID, mode customer.Visibility, dest any) bool {
	return c.get(ctx, c.DetailKey(id, mode), dest)
}

// SetDetail stores a detail projection with the configured TTL
func (c *CustomerCache) SetDetail(ctx context.Context, id uuid.UUID, mode customer.Visibility, value any) {
	c.set(ctx, c.DetailKey(id, mode), value)
}

// InvalidateDetail removes both visibility variants of a customer's
// detail entry
func (c *CustomerCache) InvalidateDetail(ctx context.Context, id uuid.UUID) error {
	return multierr.Combine(
		c.store.Delete(ctx, c.DetailKey(id, customer.VisibilityPublic)),
		c.store.Delete(ctx, c.DetailKey(id, customer.VisibilityInternal)),
	)
}

// InvalidateDetails removes detail entries for many customers concurrently
func (c *CustomerCache) InvalidateDetails(ctx context.Context, ids []uuid.UUID) error {
	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			if err := c.InvalidateDetail(ctx, id); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()
	return errs
}

// InvalidateForMutation performs the full post-mutation invalidation:
// bump the list version, then drop detail entries for the affected
// customers. Failures are logged but never returned, because a completed
// database write must not be reported as failed over cache trouble.
func (c *CustomerCache) InvalidateForMutation(ctx context.Context, ids ...uuid.UUID) {
	if c.disabled {
		return
	}
	if _, err := c.BumpVersion(ctx); err != nil {
		c.logger.Warn("cache version bump failed after mutation", zap.Error(err))
	}
	if len(ids) == 0 {
		return
	}
	if err := c.InvalidateDetails(ctx, ids); err != nil {
		c.logger.Warn("detail cache invalidation failed after mutation",
			zap.Int("count", len(ids)),
			zap.Error(err))
	}
}

func (c *CustomerCache) get(ctx context.Context, key string, dest any) bool {
	if c.disabled || key == "" {
		return false
	}
	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("cache entry corrupt, treating as miss", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CustomerCache) set(ctx context.Context, key string, value any) {
	if c.disabled || key == "" {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache serialization failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// fingerprint hashes the query parameters into a short stable hex digest.
// json.Marshal sorts map keys, so parameter order never changes the digest.
func fingerprint(params map[string]any) string {
	if params == nil {
		params = map[string]any{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		// map[string]any with scalar values cannot fail to marshal;
		// guard anyway so a bad value degrades to a shared bucket.
		raw = []byte("{}")
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:fingerprintHexLen]
}
