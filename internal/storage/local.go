package storage

import (
    "context"
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"

    "github.com/local/pagecomposer/internal/assembler"
    "github.com/local/pagecomposer/internal/store"
)

// LocalDir stores assembled pages under <dir>/<page-key>/.
type LocalDir struct{ dir string }

var _ assembler.Persistence = (*LocalDir)(nil)

// NewLocalDir defaults to ./results when dir is empty.
func NewLocalDir(dir string) *LocalDir {
    if dir == "" { dir = "results" }
    return &LocalDir{dir: dir}
}

func (l *LocalDir) Name() string { return "local" }

func (l *LocalDir) Save(ctx context.Context, req assembler.SaveRequest) (assembler.Ack, error) {
    if err := ctx.Err(); err != nil { return assembler.Ack{}, err }
    dir := filepath.Join(l.dir, store.PageKey(req.PageName))
    if err := os.MkdirAll(dir, 0o755); err != nil { return assembler.Ack{}, err }
    p := filepath.Join(dir, "index.html")
    if err := os.WriteFile(p, []byte(req.FinalHTML), 0o644); err != nil { return assembler.Ack{}, err }
    if err := os.WriteFile(filepath.Join(dir, "code.txt"), []byte(req.FinalCode), 0o644); err != nil { return assembler.Ack{}, err }
    m, err := json.MarshalIndent(req, "", "  ")
    if err != nil { return assembler.Ack{}, fmt.Errorf("encode manifest: %w", err) }
    if err := os.WriteFile(filepath.Join(dir, "manifest.json"), m, 0o644); err != nil { return assembler.Ack{}, err }
    return assembler.Ack{Backend: l.Name(), Location: p}, nil
}
