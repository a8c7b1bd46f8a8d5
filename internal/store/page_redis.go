package store

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    redis "github.com/redis/go-redis/v9"

    "github.com/local/pagecomposer/internal/assembler"
    "github.com/local/pagecomposer/internal/section"
)

// PageStore persists assembled pages as Redis hashes and indexes them by save
// time in <ns>:pages.
type PageStore struct {
    client *redis.Client
    keyNS  string
}

var _ assembler.Persistence = (*PageStore)(nil)

func NewPageStore(client *redis.Client, keyNS string) *PageStore {
    if keyNS == "" { keyNS = "composer" }
    return &PageStore{client: client, keyNS: keyNS}
}

func (s *PageStore) Name() string { return "redis" }

func (s *PageStore) pageKey(name string) string { return fmt.Sprintf("%s:page:%s", s.keyNS, PageKey(name)) }
func (s *PageStore) indexKey() string          { return s.keyNS + ":pages" }

func (s *PageStore) Save(ctx context.Context, req assembler.SaveRequest) (assembler.Ack, error) {
    sections, err := json.Marshal(req.Sections)
    if err != nil { return assembler.Ack{}, fmt.Errorf("encode sections: %w", err) }
    key := s.pageKey(req.PageName)
    savedAt := req.SavedAt
    if savedAt.IsZero() { savedAt = time.Now().UTC() }

    pipe := s.client.TxPipeline()
    pipe.HSet(ctx, key, map[string]interface{}{
        "name":     req.PageName,
        "html":     req.FinalHTML,
        "code":     req.FinalCode,
        "sections": string(sections),
        "saved_at": savedAt.Format(time.RFC3339Nano),
    })
    pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(savedAt.Unix()), Member: key})
    if _, err := pipe.Exec(ctx); err != nil {
        return assembler.Ack{}, fmt.Errorf("redis save: %w", err)
    }
    return assembler.Ack{Backend: s.Name(), Location: key}, nil
}

// GetPage loads a saved page. ok is false when nothing is stored under name.
func (s *PageStore) GetPage(ctx context.Context, name string) (assembler.SaveRequest, bool, error) {
    res, err := s.client.HGetAll(ctx, s.pageKey(name)).Result()
    if err != nil { return assembler.SaveRequest{}, false, err }
    if len(res) == 0 { return assembler.SaveRequest{}, false, nil }
    out := assembler.SaveRequest{PageName: res["name"], FinalHTML: res["html"], FinalCode: res["code"]}
    if v := res["saved_at"]; v != "" {
        if t, err := time.Parse(time.RFC3339Nano, v); err == nil { out.SavedAt = t }
    }
    if v := res["sections"]; v != "" {
        var secs []section.Section
        if err := json.Unmarshal([]byte(v), &secs); err != nil {
            return assembler.SaveRequest{}, true, fmt.Errorf("decode sections: %w", err)
        }
        out.Sections = secs
    }
    return out, true, nil
}
