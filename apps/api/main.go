package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/taippa-io/taippa/contracts"
	influencershandler "github.com/taippa-io/taippa/domains/influencers/be/handler"
	influencersservice "github.com/taippa-io/taippa/domains/influencers/be/service"
	matchinghandler "github.com/taippa-io/taippa/domains/matching/be/handler"
	matchingservice "github.com/taippa-io/taippa/domains/matching/be/service"
	"github.com/taippa-io/taippa/platform/go/authz"
	platformlogging "github.com/taippa-io/taippa/platform/go/logging"
	"github.com/taippa-io/taippa/platform/go/metrics"
)

type config struct {
	Port                    string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout         time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout          time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL             string        `env:"DATABASE_URL"`
	AuthProvider            string        `env:"AUTH_PROVIDER" envDefault:"firebase"` // firebase | dev
	FirebaseCredentialsFile string        `env:"FIREBASE_CREDENTIALS_FILE"`
	DirectoryBackend        string        `env:"DIRECTORY_BACKEND" envDefault:"postgres"` // postgres | memory
	DirectorySeedFile       string        `env:"DIRECTORY_SEED_FILE"`                     // memory backend only
	DirectorySeedTenant     uuid.UUID     `env:"DIRECTORY_SEED_TENANT"`
	DirectoryBrandsFile     string        `env:"DIRECTORY_BRANDS_FILE"`
	RateLimitPerMinute      int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"` // 0 disables
	CORSAllowedOrigins      []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	PolicyPath              string        `env:"POLICY_PATH"` // empty uses the embedded policy
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	policy, err := authz.New(authz.Config{
		PolicyPath: cfg.PolicyPath,
		Observe: func(req authz.Request, d authz.Decision) {
			m.ObservePolicyDecision(string(req.Action), d.Allowed)
		},
	})
	if err != nil {
		logger.Fatal("init access policy", zap.Error(err))
	}

	spec, err := contracts.Load(ctx)
	if err != nil {
		logger.Fatal("load api contract", zap.Error(err))
	}

	dir, err := openDirectory(ctx, cfg, m, logger)
	if err != nil {
		logger.Fatal("open directory", zap.String("backend", cfg.DirectoryBackend), zap.Error(err))
	}
	defer dir.close()

	authMiddleware, err := buildAuthMiddleware(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init auth", zap.Error(err))
	}

	influencerService := influencersservice.New(dir.influencers, policy, m)
	matchingService := matchingservice.New(dir.matching, policy, m)

	handler := newRouter(routerDeps{
		cfg:         cfg,
		logger:      logger,
		spec:        spec,
		auth:        authMiddleware,
		tenants:     dir.tenants,
		influencers: influencershandler.New(influencerService, logger),
		matching:    matchinghandler.New(matchingService, logger),
		metrics:     m,
		gatherer:    registry,
		ready:       dir.ready,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server",
			zap.String("port", cfg.Port),
			zap.String("directory_backend", cfg.DirectoryBackend),
			zap.String("auth_provider", cfg.AuthProvider),
		)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
