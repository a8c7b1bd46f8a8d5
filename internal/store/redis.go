package store

import (
    "context"
    "fmt"
    "time"

    "github.com/google/uuid"
    "github.com/gosimple/slug"
    redis "github.com/redis/go-redis/v9"
)

// Connect parses redisURL and pings the server.
func Connect(redisURL string) (*redis.Client, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil {
        return nil, fmt.Errorf("parse redis url: %w", err)
    }
    c := redis.NewClient(opt)
    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()
    if err := c.Ping(ctx).Err(); err != nil {
        _ = c.Close()
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    return c, nil
}

// PageKey derives a stable storage key from a page name.
func PageKey(pageName string) string {
    k := slug.Make(pageName)
    if k == "" { k = uuid.NewString() }
    return k
}
