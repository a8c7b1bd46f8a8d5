package store

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"

    redis "github.com/redis/go-redis/v9"

    "github.com/local/pagecomposer/internal/library"
)

// SourceStore is a Design Library backed by Redis. Each source is one JSON
// string under <ns>:source:<id>.
type SourceStore struct {
    client *redis.Client
    keyNS  string
}

var _ library.Library = (*SourceStore)(nil)

func NewSourceStore(client *redis.Client, keyNS string) *SourceStore {
    if keyNS == "" { keyNS = "composer" }
    return &SourceStore{client: client, keyNS: keyNS}
}

func (s *SourceStore) key(id string) string { return fmt.Sprintf("%s:source:%s", s.keyNS, id) }

func (s *SourceStore) GetSource(ctx context.Context, sourceID string) (library.Source, error) {
    raw, err := s.client.Get(ctx, s.key(sourceID)).Result()
    if errors.Is(err, redis.Nil) {
        return library.Source{}, fmt.Errorf("%w: %s", library.ErrNotFound, sourceID)
    }
    if err != nil {
        return library.Source{}, fmt.Errorf("get source %s: %w", sourceID, err)
    }
    var src library.Source
    if err := json.Unmarshal([]byte(raw), &src); err != nil {
        return library.Source{}, fmt.Errorf("decode source %s: %w", sourceID, err)
    }
    if src.ID == "" { src.ID = sourceID }
    return src, nil
}

// PutSource stores or replaces a source.
func (s *SourceStore) PutSource(ctx context.Context, src library.Source) error {
    if src.ID == "" { return errors.New("source id is required") }
    b, err := json.Marshal(src)
    if err != nil { return err }
    return s.client.Set(ctx, s.key(src.ID), b, 0).Err()
}
