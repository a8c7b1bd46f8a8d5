package config

import (
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// GenerationConfig describes the generation service and how hard we push it.
type GenerationConfig struct {
    BaseURL        string
    APIKey         string
    RequestTimeout time.Duration
    Concurrency    int // bulk generation fan-out per session
    MaxInflight    int // service calls in flight per process
}

// BreakerConfig tunes the Redis backed circuit breaker.
type BreakerConfig struct {
    Enabled     bool
    BaseBackoff time.Duration
    MaxBackoff  time.Duration
}

type RedisConfig struct {
    URL       string
    Namespace string
}

// PersistenceConfig selects where assembled pages go.
type PersistenceConfig struct {
    Backend   string // "redis"|"s3"|"local"
    Bucket    string
    Prefix    string
    ResultDir string
}

type ServerConfig struct {
    Port            string
    ShutdownTimeout time.Duration
    SessionIdleTTL  time.Duration // zero disables the reaper
}

// Config is the top-level configuration.
type Config struct {
    Logging     LoggingConfig
    Axiom       AxiomConfig
    Generation  GenerationConfig
    Breaker     BreakerConfig
    Redis       RedisConfig
    Persistence PersistenceConfig
    Server      ServerConfig
}

// FromEnv loads configuration from environment with sensible defaults. A .env
// file in the working directory is read first if present; real environment
// variables win over it.
func FromEnv() Config {
    _ = godotenv.Load()

    cfg := Config{}

    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/pagecomposer.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_pagecomposer",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    cfg.Generation = GenerationConfig{
        BaseURL:        getEnv("GENERATION_URL", "http://localhost:8090"),
        APIKey:         getEnv("GENERATION_API_KEY", ""),
        RequestTimeout: parseDuration(getEnv("GENERATION_TIMEOUT", "90s"), 90*time.Second),
        Concurrency:    parseInt(getEnv("GENERATION_CONCURRENCY", "4"), 4),
        MaxInflight:    parseInt(getEnv("GENERATION_MAX_INFLIGHT", "16"), 16),
    }

    cfg.Breaker = BreakerConfig{
        Enabled:     parseBool(getEnv("BREAKER_ENABLED", "true")),
        BaseBackoff: parseDuration(getEnv("BREAKER_BASE_BACKOFF", "30s"), 30*time.Second),
        MaxBackoff:  parseDuration(getEnv("BREAKER_MAX_BACKOFF", "5m"), 5*time.Minute),
    }

    cfg.Redis = RedisConfig{
        URL:       getEnv("REDIS_URL", "redis://localhost:6379"),
        Namespace: getEnv("REDIS_NAMESPACE", "composer"),
    }

    cfg.Persistence = PersistenceConfig{
        Backend:   strings.ToLower(getEnv("PERSISTENCE_BACKEND", "redis")),
        Bucket:    getEnv("AWS_S3_BUCKET", ""),
        Prefix:    getEnv("S3_PREFIX", "pages"),
        ResultDir: getEnv("RESULT_DIR", "results"),
    }

    cfg.Server = ServerConfig{
        Port:            getEnv("PORT", "8080"),
        ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
        SessionIdleTTL:  parseDuration(getEnv("SESSION_IDLE_TTL", "2h"), 2*time.Hour),
    }

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
