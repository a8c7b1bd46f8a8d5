package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/local/pagecomposer/internal/assembler"
	"github.com/local/pagecomposer/internal/store"
)

// Uploader is the part of manager.Uploader the publisher needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Publisher stores assembled pages in a bucket as
// <prefix>/<page-key>/{index.html,code.txt,manifest.json}.
type S3Publisher struct {
	uploader Uploader
	bucket   string
	prefix   string
}

var _ assembler.Persistence = (*S3Publisher)(nil)

// NewS3Publisher loads the default AWS config and builds an uploader.
func NewS3Publisher(ctx context.Context, bucket, prefix string) (*S3Publisher, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3PublisherWith(manager.NewUploader(s3.NewFromConfig(cfg)), bucket, prefix), nil
}

func NewS3PublisherWith(u Uploader, bucket, prefix string) *S3Publisher {
	return &S3Publisher{uploader: u, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (p *S3Publisher) Name() string { return "s3" }

type manifest struct {
	PageName string `json:"pageName"`
	SavedAt  string `json:"savedAt"`
	Sections any    `json:"sections"`
	HTMLKey  string `json:"htmlKey"`
	CodeKey  string `json:"codeKey"`
}

func (p *S3Publisher) Save(ctx context.Context, req assembler.SaveRequest) (assembler.Ack, error) {
	if p.bucket == "" {
		return assembler.Ack{}, fmt.Errorf("s3 bucket is not configured")
	}
	base := path.Join(p.prefix, store.PageKey(req.PageName))
	htmlKey := path.Join(base, "index.html")
	codeKey := path.Join(base, "code.txt")

	m, err := json.Marshal(manifest{
		PageName: req.PageName,
		SavedAt:  req.SavedAt.Format("2006-01-02T15:04:05Z07:00"),
		Sections: req.Sections,
		HTMLKey:  htmlKey,
		CodeKey:  codeKey,
	})
	if err != nil {
		return assembler.Ack{}, fmt.Errorf("encode manifest: %w", err)
	}

	objects := []struct {
		key, contentType string
		body             []byte
	}{
		{htmlKey, "text/html; charset=utf-8", []byte(req.FinalHTML)},
		{codeKey, "text/plain; charset=utf-8", []byte(req.FinalCode)},
		{path.Join(base, "manifest.json"), "application/json", m},
	}
	for _, o := range objects {
		_, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(o.key),
			Body:        bytes.NewReader(o.body),
			ContentType: aws.String(o.contentType),
			Metadata:    map[string]string{"page-name": req.PageName},
		})
		if err != nil {
			return assembler.Ack{}, fmt.Errorf("failed to upload %s: %w", o.key, err)
		}
		log.Debug().Str("bucket", p.bucket).Str("key", o.key).Int("size", len(o.body)).Msg("uploaded page object")
	}
	return assembler.Ack{Backend: p.Name(), Location: fmt.Sprintf("s3://%s/%s", p.bucket, htmlKey)}, nil
}
