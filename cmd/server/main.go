package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/streamfront/internal/handlers"
	"github.com/example/streamfront/internal/platform/analytics"
	"github.com/example/streamfront/internal/platform/api"
	"github.com/example/streamfront/internal/platform/auth"
	"github.com/example/streamfront/internal/platform/config"
	"github.com/example/streamfront/internal/platform/db"
	"github.com/example/streamfront/internal/platform/httpserver"
	"github.com/example/streamfront/internal/platform/logging"
	"github.com/example/streamfront/internal/platform/natsconn"
	"github.com/example/streamfront/internal/platform/run"
	"github.com/example/streamfront/internal/platform/signing"
	"github.com/example/streamfront/internal/progress"
	"github.com/example/streamfront/internal/store"
	"github.com/example/streamfront/internal/watchlist"
	"github.com/example/streamfront/internal/worker"
)

const cacheInvalidateSubject = "streamfront.cache.invalidate"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	// Remote progress backend: Postgres when configured, in-memory for dev.
	var remote store.Backend
	var wlStore watchlist.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", zap.Error(err))
			run.Exit(1)
		}
		defer pool.Close()

		pg := store.NewPostgresBackend(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("ensure progress schema", zap.Error(err))
			run.Exit(1)
		}
		wlPG := watchlist.NewPostgresStore(pool)
		if err := wlPG.EnsureSchema(ctx); err != nil {
			log.Error("ensure watchlist schema", zap.Error(err))
			run.Exit(1)
		}
		remote = pg
		wlStore = wlPG
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		remote = store.NewMemoryBackend()
		wlStore = watchlist.NewInMemoryStore()
	}

	// Local durable mirror.
	bdb, err := store.OpenBadger(cfg.CacheDir)
	if err != nil {
		log.Error("open badger cache", zap.Error(err))
		run.Exit(1)
	}
	defer func() { _ = bdb.Close() }()

	persister := store.NewDualWriter(remote, store.NewBadgerBackend(bdb), log)
	mgr := progress.NewManager(persister, progress.Config{
		MaxEntries:          cfg.Progress.MaxEntries,
		CompletionThreshold: cfg.Progress.CompletionThreshold,
		ThrottleInterval:    cfg.Progress.ThrottleInterval,
	}, log)
	norm := progress.NewNormalizer(log)

	// NATS is optional: without it analytics are dropped and the beacon
	// stream consumer stays offline, but the HTTP surface works fully.
	var nc *nats.Conn
	var js nats.JetStreamContext
	if c, err := natsconn.Connect(natsconn.Options{Name: cfg.ServiceName}); err != nil {
		log.Warn("nats unavailable, continuing without it", zap.Error(err))
	} else {
		nc = c
		defer nc.Drain()
		if jctx, err := nc.JetStream(); err != nil {
			log.Warn("jetstream unavailable", zap.Error(err))
		} else {
			js = jctx
		}
	}
	ap := analytics.New(js, log)

	verifier := auth.JWTVerifier{Secret: []byte(cfg.AuthSecret)}
	signer := signing.New(cfg.EmbedSecret)
	wlCache := handlers.NewTTLCache(time.Minute, nc, cacheInvalidateSubject)
	ingestRL := handlers.NewRateLimiter(20, 40)

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc: func() error { return nil },
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]any{"service": cfg.ServiceName})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))

		r.With(ingestRL.Middleware).Post("/v1/player/events", handlers.IngestPlayerEvent(mgr, norm, ap))
		r.Get("/v1/player/embed/{title_id}", handlers.EmbedToken(signer, cfg.EmbedTTL, ap))

		r.Get("/v1/me/continue-watching", handlers.ContinueWatching(mgr))
		r.Delete("/v1/me/continue-watching", handlers.ClearProgress(mgr, ap))
		r.Delete("/v1/me/continue-watching/{composite_key}", handlers.RemoveProgress(mgr))
		r.Get("/v1/me/completed", handlers.Completed(mgr))

		r.Post("/v1/me/session", handlers.OpenSession(mgr))
		r.Delete("/v1/me/session", handlers.CloseSession(mgr))

		r.Get("/v1/me/watchlist", handlers.ListWatchlist(wlStore, wlCache))
		r.Put("/v1/me/watchlist/{title_id}", handlers.AddWatchlistItem(wlStore, wlCache, ap))
		r.Delete("/v1/me/watchlist/{title_id}", handlers.RemoveWatchlistItem(wlStore, wlCache))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		if js != nil {
			if err := worker.EnsureStream(js); err != nil {
				log.Warn("ensure beacon stream", zap.Error(err))
			} else if err := worker.NewConsumer(mgr, norm, log).Start(ctx, js); err != nil {
				log.Warn("start beacon consumer", zap.Error(err))
			}
		}

		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	// Flush every live session before the process exits.
	runner.Graceful(func(ctx context.Context) error {
		mgr.CloseAll(ctx)
		return nil
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}
