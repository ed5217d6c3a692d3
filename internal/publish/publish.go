// Package publish uploads committed artifacts to an S3-compatible bucket.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kenja/internal/config"
)

// LatestDir is the key segment holding a copy of the most recent run's artifacts.
const LatestDir = "latest"

// ErrNotConfigured is returned by NewPublisher when no bucket is configured.
var ErrNotConfigured = errors.New("publishing is not configured")

// ObjectPutter is the subset of the S3 client used by Publisher.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads artifact files under <prefix>/<run id>/ and <prefix>/latest/.
type Publisher struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *zap.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger used for upload progress.
func WithLogger(l *zap.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPublisher creates a Publisher backed by an S3 client built from cfg. Without an access key
// the client makes anonymous requests.
func NewPublisher(cfg config.PublishConfig, opts ...Option) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if cfg.Region == "" {
		return nil, errors.New("region is required")
	}

	o := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.AccessKeyID != "" {
		o.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		))
	} else {
		o.Credentials = aws.AnonymousCredentials{}
	}
	if cfg.Endpoint != "" {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return New(s3.New(o), cfg.Bucket, cfg.Prefix, opts...), nil
}

// New creates a Publisher over an existing client.
func New(client ObjectPutter, bucket, prefix string, opts ...Option) *Publisher {
	p := &Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Key returns the object key of file for run.
func (p *Publisher) Key(run string, file string) string {
	return path.Join(p.prefix, run, filepath.Base(file))
}

// Publish uploads each file twice: once under the run id and once under LatestDir. Empty
// entries are skipped. It returns the uploaded keys in upload order.
func (p *Publisher) Publish(ctx context.Context, runID uuid.UUID, files []string) ([]string, error) {
	var keys []string
	for _, f := range files {
		if f == "" {
			continue
		}
		data, err := os.ReadFile(f)
		if err != nil {
			return keys, fmt.Errorf("read artifact %s: %w", f, err)
		}
		for _, dir := range []string{runID.String(), LatestDir} {
			key := p.Key(dir, f)
			_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
				Bucket:      aws.String(p.bucket),
				Key:         aws.String(key),
				Body:        bytes.NewReader(data),
				ContentType: aws.String(contentType(f)),
				Metadata:    map[string]string{"run-id": runID.String()},
			})
			if err != nil {
				return keys, fmt.Errorf("put s3://%s/%s: %w", p.bucket, key, err)
			}
			p.logger.Debug("artifact published", zap.String("bucket", p.bucket), zap.String("key", key), zap.Int("bytes", len(data)))
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json":
		return "application/json"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".cbor":
		return "application/cbor"
	default:
		return "application/octet-stream"
	}
}
