package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pagecomposer/internal/assembler"
)

func request() assembler.SaveRequest {
	return assembler.SaveRequest{
		PageName:  "Home Page",
		FinalHTML: "<header/><footer/>",
		FinalCode: "HF",
		SavedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestLocalDir_Save(t *testing.T) {
	dir := t.TempDir()
	l := NewLocalDir(dir)

	ack, err := l.Save(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "local", ack.Backend)
	assert.Equal(t, filepath.Join(dir, "home-page", "index.html"), ack.Location)

	html, err := os.ReadFile(ack.Location)
	require.NoError(t, err)
	assert.Equal(t, "<header/><footer/>", string(html))

	code, err := os.ReadFile(filepath.Join(dir, "home-page", "code.txt"))
	require.NoError(t, err)
	assert.Equal(t, "HF", string(code))

	raw, err := os.ReadFile(filepath.Join(dir, "home-page", "manifest.json"))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "Home Page", m["pageName"])
}

func TestLocalDir_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocalDir(t.TempDir()).Save(ctx, request())
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeUploader struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.objects[key] = b
	f.types[key] = aws.ToString(in.ContentType)
	return &manager.UploadOutput{}, nil
}

func TestS3Publisher_Save(t *testing.T) {
	up := &fakeUploader{objects: map[string][]byte{}, types: map[string]string{}}
	p := NewS3PublisherWith(up, "bucket", "/pages/")

	ack, err := p.Save(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "s3", ack.Backend)
	assert.Equal(t, "s3://bucket/pages/home-page/index.html", ack.Location)

	assert.Equal(t, "<header/><footer/>", string(up.objects["pages/home-page/index.html"]))
	assert.Equal(t, "HF", string(up.objects["pages/home-page/code.txt"]))
	assert.Equal(t, "text/html; charset=utf-8", up.types["pages/home-page/index.html"])

	var m manifest
	require.NoError(t, json.Unmarshal(up.objects["pages/home-page/manifest.json"], &m))
	assert.Equal(t, "pages/home-page/index.html", m.HTMLKey)
	assert.Equal(t, "2026-01-02T03:04:05Z", m.SavedAt)
}

func TestS3Publisher_Errors(t *testing.T) {
	_, err := NewS3PublisherWith(&fakeUploader{}, "", "").Save(context.Background(), request())
	assert.Error(t, err)

	boom := errors.New("access denied")
	_, err = NewS3PublisherWith(&fakeUploader{err: boom}, "b", "").Save(context.Background(), request())
	assert.ErrorIs(t, err, boom)
}
