package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/codeclash-oj/apiserver/config"
	"github.com/codeclash-oj/apiserver/internal/db"
	"github.com/codeclash-oj/apiserver/internal/executor"
	"github.com/codeclash-oj/apiserver/internal/handlers"
	"github.com/codeclash-oj/apiserver/internal/metrics"
	"github.com/codeclash-oj/apiserver/internal/mq"
	"github.com/codeclash-oj/apiserver/internal/services"
	"github.com/codeclash-oj/apiserver/internal/storage"
	"github.com/codeclash-oj/apiserver/internal/store"
	"github.com/codeclash-oj/apiserver/types"
)

// Server wraps the HTTP server, router, and owned backends.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
	logger     zerolog.Logger
}

// New constructs a Server: it loads the catalog and roster, opens the
// configured store backend, rebuilds the ranking engine from the store,
// and wires the judging pipeline onto the router.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "apiserver").Logger()

	challenges, roster, err := loadCatalogData(ctx, cfg)
	if err != nil {
		return nil, err
	}
	catalog := services.NewCatalog(challenges)
	logger.Info().Int("challenges", catalog.Size()).Int("roster", len(roster)).Msg("catalog loaded")

	var dbConn *sql.DB
	var submissions store.SubmissionStore
	switch strings.ToLower(cfg.StoreBackend) {
	case "", "memory":
		submissions = store.NewMemoryStore()
	case "postgres":
		dbConn, err = db.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		submissions = store.NewPostgresStore(dbConn)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	ranking := services.NewRankingEngine()
	ranking.Seed(roster)
	if err := ranking.Rebuild(ctx, submissions); err != nil {
		closeQuietly(dbConn)
		return nil, fmt.Errorf("rebuild ranking: %w", err)
	}

	exec, err := executor.NewHTTPClient(cfg.Executor.Endpoint)
	if err != nil {
		closeQuietly(dbConn)
		return nil, err
	}

	queue, err := openQueue(ctx, cfg)
	if err != nil {
		closeQuietly(dbConn)
		return nil, err
	}

	judgeOpts := []services.JudgeOption{
		services.WithLogger(logger),
		services.WithMetrics(metrics.New()),
		services.WithExecutorOverhead(time.Duration(cfg.Executor.OverheadMillis) * time.Millisecond),
	}
	if queue != nil {
		judgeOpts = append(judgeOpts, services.WithEventPublisher(mq.NewJudgedPublisher(queue)))
	}
	judge := services.NewJudgeService(catalog, submissions, ranking, exec, judgeOpts...)
	stats := services.NewStatsService(catalog, submissions)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	router.Route("/challenges", func(r chi.Router) {
		handlers.ChallengeRouter(r, catalog, stats)
	})
	router.Route("/submissions", func(r chi.Router) {
		handlers.SubmissionRouter(r, judge, submissions, stats)
	})
	router.Route("/leaderboard", func(r chi.Router) {
		handlers.LeaderboardRouter(r, ranking, submissions)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
		logger:     logger,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.queue != nil {
		_ = s.queue.Close()
	}
	closeQuietly(s.db)
	return s.httpServer.Close()
}

// loadCatalogData reads the externally curated challenge catalog and
// user roster from the configured source. A missing roster is not
// fatal; leaderboard records are then created lazily on first
// submission.
func loadCatalogData(ctx context.Context, cfg config.Config) ([]types.Challenge, []types.RosterEntry, error) {
	switch strings.ToLower(cfg.StorageBackend) {
	case "", "file":
		challenges, err := services.LoadChallengesFromFile(cfg.CatalogKey)
		if err != nil {
			return nil, nil, err
		}
		roster, err := services.LoadRosterFromFile(cfg.RosterKey)
		if err != nil {
			roster = nil
		}
		return challenges, roster, nil

	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, nil, err
		}
		return loadFromObjectStorage(ctx, storage.NewStorage(client), cfg)

	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, nil, err
		}
		return loadFromObjectStorage(ctx, storage.NewStorage(client), cfg)

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func loadFromObjectStorage(ctx context.Context, st *storage.Storage, cfg config.Config) ([]types.Challenge, []types.RosterEntry, error) {
	challenges, err := services.LoadChallenges(ctx, st, cfg.CatalogKey)
	if err != nil {
		return nil, nil, err
	}
	roster, err := services.LoadRoster(ctx, st, cfg.RosterKey)
	if err != nil {
		roster = nil
	}
	return challenges, roster, nil
}

// openQueue constructs the configured event publishing backend.
// Returns nil when publishing is disabled.
func openQueue(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch strings.ToLower(cfg.MQBackend) {
	case "", "none":
		return nil, nil
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return mq.New(client), nil
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("connect pubsub: %w", err)
		}
		return mq.New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQBackend)
	}
}

func closeQuietly(dbConn *sql.DB) {
	if dbConn != nil {
		_ = dbConn.Close()
	}
}
