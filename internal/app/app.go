package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onclock/draft-alerts/external/sleeper"
	"github.com/onclock/draft-alerts/internal/config"
	"github.com/onclock/draft-alerts/internal/infrastructure/repository/postgres"
	"github.com/onclock/draft-alerts/internal/interfaces/httpapi"
	"github.com/onclock/draft-alerts/internal/platform/cache"
	"github.com/onclock/draft-alerts/internal/platform/logging"
	"github.com/onclock/draft-alerts/internal/platform/resilience"
	"github.com/onclock/draft-alerts/internal/platform/webpush"
	"github.com/onclock/draft-alerts/internal/usecase"
)

// NewHTTPServer wires the full service: database, push encoder, Sleeper
// client, use cases and the HTTP router. The returned cleanup releases the
// database pool.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	vapidKey, err := webpush.ParseVAPIDKey(cfg.VAPIDPrivateJWK)
	if err != nil {
		return nil, nil, fmt.Errorf("parse VAPID_PRIVATE_JWK: %w", err)
	}

	encoder, err := webpush.NewEncoder(webpush.EncoderConfig{
		Key:     vapidKey,
		Subject: cfg.VAPIDSubject,
		TTL:     cfg.PushTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build push encoder: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	subRepo := postgres.NewSubscriptionRepository(db)
	stateRepo := postgres.NewClockStateRepository(db)

	sleeperClient := sleeper.NewClient(sleeper.ClientConfig{
		BaseURL:    cfg.SleeperBaseURL,
		Timeout:    cfg.SleeperTimeout,
		MaxRetries: cfg.SleeperMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SleeperCircuitEnabled,
			FailureThreshold: cfg.SleeperCircuitFailureCount,
			OpenTimeout:      cfg.SleeperCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SleeperCircuitHalfOpenMaxReq,
		},
	})

	subscriptionService := usecase.NewSubscriptionService(subRepo, stateRepo, sleeperClient, logger)
	fetcher := usecase.NewSnapshotFetcher(sleeperClient, logger)
	pollService := usecase.NewPollService(
		subRepo,
		stateRepo,
		fetcher,
		sleeperClient,
		usecase.NewReconciler(usecase.DefaultReconcilerConfig()),
		usecase.NewComposer(),
		encoder,
		webpush.NewSender(cfg.PushSendTimeout),
		cache.NewStore(cfg.UserIDCacheTTL),
		logger,
		usecase.PollConfig{
			SummaryMaxLeagues: cfg.SummaryMaxLeagues,
			PrewarmWorkers:    cfg.PollPrewarmWorkers,
		},
	)

	handler := httpapi.NewHandler(subscriptionService, pollService, vapidKey.PublicKeyB64(), logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if server.Addr == "" {
		db.Close()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	cleanup := func(context.Context) error {
		return db.Close()
	}
	return server, cleanup, nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	opts := []otelsql.Option{
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	}
	if name := dbNameFromURL(cfg.DBURL); name != "" {
		opts = append(opts, otelsql.WithDBName(name))
	}

	db, err := otelsqlx.Connect("postgres", cfg.DBURL, opts...)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}
