package statuscheck

import (
    "context"
    "errors"
    "time"

    awscfg "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/service/s3"
)

// Pinger is anything that can answer a liveness probe.
type Pinger interface {
    Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Checker aggregates checks of the collaborators the pipeline depends on.
type Checker struct {
    redis      Pinger
    generation Pinger
    s3Bucket   string
    backend    string
}

// Options configures the Checker. S3Bucket is only probed for the s3 backend.
type Options struct {
    Redis      Pinger
    Generation Pinger
    Backend    string
    S3Bucket   string
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
    Redis       Status `json:"redis"`
    Generation  Status `json:"generation"`
    Persistence Status `json:"persistence"`
}

func (s Summary) OK() bool { return s.Redis.OK && s.Generation.OK && s.Persistence.OK }

func New(opts Options) *Checker {
    return &Checker{
        redis:      opts.Redis,
        generation: opts.Generation,
        s3Bucket:   opts.S3Bucket,
        backend:    opts.Backend,
    }
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
    return Summary{
        Redis:       ping(ctx, c.redis, 2*time.Second, "Connected"),
        Generation:  ping(ctx, c.generation, 5*time.Second, "Available"),
        Persistence: c.checkPersistence(ctx),
    }
}

func ping(ctx context.Context, p Pinger, timeout time.Duration, okMsg string) Status {
    if p == nil {
        return Status{OK: false, Message: "client unavailable"}
    }
    ctx, cancel := context.WithTimeout(ctx, timeout)
    defer cancel()
    if err := p.Ping(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: okMsg}
}

func (c *Checker) checkPersistence(ctx context.Context) Status {
    switch c.backend {
    case "redis":
        return ping(ctx, c.redis, 2*time.Second, "Redis")
    case "local", "":
        return Status{OK: true, Message: "Local directory"}
    case "s3":
    default:
        return Status{OK: false, Message: "unknown backend " + c.backend}
    }
    if c.s3Bucket == "" {
        return Status{OK: false, Message: "Bucket not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    cfg, err := awscfg.LoadDefaultConfig(ctx)
    if err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    cli := s3.NewFromConfig(cfg)
    if _, err := cli.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &c.s3Bucket}); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func trimError(err error) string {
    if err == nil {
        return ""
    }
    var netErr interface{ Timeout() bool }
    if errors.As(err, &netErr) && netErr.Timeout() {
        return "timeout"
    }
    if errors.Is(err, context.DeadlineExceeded) {
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 {
        return msg[:120]
    }
    return msg
}
