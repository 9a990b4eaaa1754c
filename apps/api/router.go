package main

import (
	"context"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	influencershandler "github.com/taippa-io/taippa/domains/influencers/be/handler"
	matchinghandler "github.com/taippa-io/taippa/domains/matching/be/handler"
	platformlogging "github.com/taippa-io/taippa/platform/go/logging"
	"github.com/taippa-io/taippa/platform/go/metrics"
	platformmiddleware "github.com/taippa-io/taippa/platform/go/middleware"
	"github.com/taippa-io/taippa/platform/go/problem"
	tenantmiddleware "github.com/taippa-io/taippa/platform/go/tenant/middleware"
)

type routerDeps struct {
	cfg         config
	logger      *zap.Logger
	spec        *openapi3.T
	auth        func(http.Handler) http.Handler
	tenants     tenantmiddleware.Resolver
	influencers *influencershandler.Handler
	matching    *matchinghandler.Handler
	metrics     *metrics.Metrics
	gatherer    prometheus.Gatherer
	ready       func(ctx context.Context) error
}

func newRouter(d routerDeps) http.Handler {
	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(d.cfg.RequestTimeout),
		platformmiddleware.CORS(d.cfg.CORSAllowedOrigins),
	)

	rootRouter.Use(platformlogging.RequestLogger(d.logger))
	rootRouter.Use(d.metrics.Middleware)

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.ready(r.Context()); err != nil {
			platformlogging.FromRequest(r, d.logger).Warn("readiness check failed", zap.Error(err))
			problem.Write(w, problem.New(http.StatusServiceUnavailable, problem.TypeInternal,
				"Service Unavailable", "directory backend is not reachable", nil))
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Handle("/metrics", metrics.Handler(d.gatherer))

	// ---- Swagger UI + OpenAPI JSON (public) ----
	registerDocsRoutes(rootRouter, d.spec, d.logger)

	apiRouter := chi.NewRouter()
	apiRouter.Use(d.auth)
	apiRouter.Use(platformmiddleware.RequestTrace)
	apiRouter.Use(tenantmiddleware.WithTenantSpace(d.tenants, tenantmiddleware.Config{
		CacheTTL: time.Minute,
	}))
	apiRouter.Use(platformmiddleware.RateLimit(d.cfg.RateLimitPerMinute, time.Minute))
	apiRouter.Use(platformmiddleware.NewSpecValidator(d.spec))

	d.influencers.Routes(apiRouter)
	d.matching.Routes(apiRouter)

	rootRouter.Mount("/api/v1", apiRouter)
	return rootRouter
}
