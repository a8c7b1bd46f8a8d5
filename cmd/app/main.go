package main

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"

    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog/log"

    "github.com/local/pagecomposer/internal/ai"
    "github.com/local/pagecomposer/internal/assembler"
    cfgpkg "github.com/local/pagecomposer/internal/config"
    "github.com/local/pagecomposer/internal/dispatcher"
    "github.com/local/pagecomposer/internal/library"
    "github.com/local/pagecomposer/internal/limiter"
    logpkg "github.com/local/pagecomposer/internal/logger"
    mpkg "github.com/local/pagecomposer/internal/metrics"
    "github.com/local/pagecomposer/internal/orchestrator"
    "github.com/local/pagecomposer/internal/statuscheck"
    "github.com/local/pagecomposer/internal/storage"
    "github.com/local/pagecomposer/internal/store"
    "github.com/local/pagecomposer/internal/strategy"
)

func main() {
    cfg := cfgpkg.FromEnv()

    // Init logging
    _ = logpkg.Init(logpkg.Options{
        Level: cfg.Logging.Level,
        Pretty: cfg.Logging.Pretty,
        File: cfg.Logging.File,
        MaxSizeMB: cfg.Logging.MaxSizeMB,
        MaxBackups: cfg.Logging.MaxBackups,
        MaxAgeDays: cfg.Logging.MaxAgeDays,
        Compress: cfg.Logging.Compress,
        SendToAxiom: cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey: cfg.Axiom.APIKey,
        AxiomOrgID: cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush: cfg.Axiom.FlushInterval,
    })
    defer logpkg.Close()
    mpkg.Init()

    rdb, err := store.Connect(cfg.Redis.URL)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to connect to redis")
    }
    defer rdb.Close()

    // Design library
    sources := store.NewSourceStore(rdb, cfg.Redis.Namespace)
    if path := os.Getenv("SOURCES_FILE"); path != "" {
        if n, err := seedSources(context.Background(), sources, path); err != nil {
            log.Fatal().Err(err).Str("file", path).Msg("failed to seed design sources")
        } else {
            log.Info().Int("sources", n).Str("file", path).Msg("design sources seeded")
        }
    }

    // Generation service behind the guard
    svc := ai.NewHTTPClient(cfg.Generation.BaseURL, cfg.Generation.APIKey, cfg.Generation.RequestTimeout)
    var breaker dispatcher.Breaker
    if cfg.Breaker.Enabled {
        breaker = dispatcher.NewCircuitBreaker(rdb, svc.Name(), cfg.Breaker.BaseBackoff, cfg.Breaker.MaxBackoff)
    }
    guarded := dispatcher.New(svc, dispatcher.Options{
        Timeout: cfg.Generation.RequestTimeout,
        Breaker: breaker,
        Limiter: limiter.New(cfg.Generation.MaxInflight),
    })

    persistence, err := newPersistence(context.Background(), cfg.Persistence, rdb, cfg.Redis.Namespace)
    if err != nil {
        log.Fatal().Err(err).Str("backend", cfg.Persistence.Backend).Msg("failed to init persistence")
    }

    var pages orchestrator.PageReader
    if ps, ok := persistence.(*store.PageStore); ok { pages = ps }

    checker := statuscheck.New(statuscheck.Options{
        Redis: statuscheck.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
        Generation: svc,
        Backend: cfg.Persistence.Backend,
        S3Bucket: cfg.Persistence.Bucket,
    })

    orch := orchestrator.New(orchestrator.Dependencies{
        Selector: strategy.NewSelector(sources),
        Handler: strategy.NewExecutor(guarded),
        Persistence: persistence,
        Pages: pages,
        Status: checker,
    }, orchestrator.Options{Concurrency: cfg.Generation.Concurrency})
    mux := http.NewServeMux()
    orch.RegisterRoutes(mux)

    reapCtx, stopReaper := context.WithCancel(context.Background())
    defer stopReaper()
    go orch.RunReaper(reapCtx, cfg.Server.SessionIdleTTL)

    srv := &http.Server{Addr: ":"+cfg.Server.Port, Handler: mux}

    go func(){
        log.Info().
            Str("persistence", persistence.Name()).
            Str("generation_url", cfg.Generation.BaseURL).
            Msgf("HTTP server listening on :%s", cfg.Server.Port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
    defer cancel()
    _ = srv.Shutdown(ctx)
    fmt.Println("shutdown complete")
}

func newPersistence(ctx context.Context, cfg cfgpkg.PersistenceConfig, rdb *redis.Client, ns string) (assembler.Persistence, error) {
    switch cfg.Backend {
    case "redis":
        return store.NewPageStore(rdb, ns), nil
    case "s3":
        if cfg.Bucket == "" { return nil, fmt.Errorf("AWS_S3_BUCKET is required for the s3 backend") }
        return storage.NewS3Publisher(ctx, cfg.Bucket, cfg.Prefix)
    case "local":
        return storage.NewLocalDir(cfg.ResultDir), nil
    }
    return nil, fmt.Errorf("unknown persistence backend %q", cfg.Backend)
}

// seedSources loads a JSON array of design sources into the library.
func seedSources(ctx context.Context, s *store.SourceStore, path string) (int, error) {
    b, err := os.ReadFile(path)
    if err != nil { return 0, err }
    var list []library.Source
    if err := json.Unmarshal(b, &list); err != nil { return 0, fmt.Errorf("decode %s: %w", path, err) }
    for _, src := range list {
        if err := s.PutSource(ctx, src); err != nil { return 0, fmt.Errorf("put source %s: %w", src.ID, err) }
    }
    return len(list), nil
}

