package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	platformauth "github.com/taippa-io/taippa/platform/go/auth"
	platformlogging "github.com/taippa-io/taippa/platform/go/logging"
	"github.com/taippa-io/taippa/platform/go/problem"
	"github.com/taippa-io/taippa/platform/go/tenant"
)

// ErrTenantNotFound is returned by resolvers when the tenant registry has no such tenant.
var ErrTenantNotFound = errors.New("tenant not found")

// Resolver defines the minimal lookup capability required to populate a tenant Space.
// Implemented by the tenant registry store.
type Resolver interface {
	ResolveTenant(ctx context.Context, tenantID uuid.UUID) (tenant.Space, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, tenantID uuid.UUID) (tenant.Space, error)

func (f ResolverFunc) ResolveTenant(ctx context.Context, tenantID uuid.UUID) (tenant.Space, error) {
	return f(ctx, tenantID)
}

// Config controls middleware behavior.
type Config struct {
	// Optional small in-memory TTL cache to avoid DB hits; zero disables caching.
	CacheTTL time.Duration
}

// WithTenantSpace resolves the tenant from the caller credentials and attaches tenant.Space to context.
// Requests without a tenant claim, or with a tenant the registry does not know, are rejected.
func WithTenantSpace(resolver Resolver, cfg Config) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("tenant middleware: resolver is required")
	}

	var cache *tenantCache
	if cfg.CacheTTL > 0 {
		cache = newTenantCache(cfg.CacheTTL)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds, ok := platformauth.UserFromContext(r.Context())
			if !ok || creds == nil || creds.TenantID == nil || *creds.TenantID == "" {
				problem.Unauthorized(w, "tenant claim required")
				return
			}

			tid, err := uuid.Parse(*creds.TenantID)
			if err != nil {
				problem.Unauthorized(w, "invalid tenant id")
				return
			}

			if space, ok := cache.get(tid); ok {
				next.ServeHTTP(w, r.WithContext(tenant.WithSpace(r.Context(), space)))
				return
			}

			space, err := resolver.ResolveTenant(r.Context(), tid)
			if err != nil {
				if errors.Is(err, ErrTenantNotFound) {
					problem.Forbidden(w, "tenant is not registered")
					return
				}
				platformlogging.OrNop(r.Context()).Error("tenant resolution failed",
					zap.String("tenant_id", tid.String()), zap.Error(err))
				problem.Write(w, problem.New(http.StatusInternalServerError, problem.TypeInternal,
					"Internal Server Error", "unexpected error", nil))
				return
			}

			cache.put(space)

			next.ServeHTTP(w, r.WithContext(tenant.WithSpace(r.Context(), space)))
		})
	}
}

type tenantCache struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
	items map[uuid.UUID]cacheItem
}

type cacheItem struct {
	space     tenant.Space
	expiresAt time.Time
}

func newTenantCache(ttl time.Duration) *tenantCache {
	return &tenantCache{ttl: ttl, now: time.Now, items: make(map[uuid.UUID]cacheItem)}
}

func (c *tenantCache) get(id uuid.UUID) (tenant.Space, bool) {
	if c == nil {
		return tenant.Space{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[id]
	if !ok {
		return tenant.Space{}, false
	}
	if c.now().After(item.expiresAt) {
		delete(c.items, id)
		return tenant.Space{}, false
	}
	return item.space, true
}

func (c *tenantCache) put(space tenant.Space) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items[space.TenantID] = cacheItem{space: space, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
