package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/otelx"
)

var tracer = otel.Tracer("sellcourse/internal/adapters/services/s3")

// ErrObjectNotFound is returned by Memory for unknown keys.
var ErrObjectNotFound = errors.New("object not found")

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}

type Client struct {
	tracer   trace.Tracer
	s3Client *s3.Client
	bucket   string
}

func NewClient(ctx context.Context, c Config) (*Client, error) {
	const op = "s3.NewClient"

	opts := []func(*config.LoadOptions) error{
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
		config.WithRegion(c.Region),
	}
	if c.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(c.Endpoint))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errorx.Wrap(err, op)
	}

	return &Client{
		tracer: tracer,
		s3Client: s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.UsePathStyle = c.Endpoint != "" // MinIO and other self hosted endpoints
		}),
		bucket: c.Bucket,
	}, nil
}

func (c *Client) UploadFile(ctx context.Context, key string, file io.Reader, contentType string) error {
	const op = "s3.Client.UploadFile"
	ctx, span := c.tracer.Start(ctx, "Client.UploadFile", trace.WithAttributes(
		attribute.String("s3.bucket", c.bucket),
		attribute.String("s3.key", key),
		attribute.String("s3.content_type", contentType),
	))
	defer span.End()

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(c.bucket),
		Key:          aws.String(key),
		Body:         file,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=604800"),
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to put object")
		return errorx.Wrap(errorx.NewUpstreamServiceError().WithCause(err), op)
	}
	return nil
}

func (c *Client) DeleteFile(ctx context.Context, key string) error {
	const op = "s3.Client.DeleteFile"
	ctx, span := c.tracer.Start(ctx, "Client.DeleteFile", trace.WithAttributes(
		attribute.String("s3.bucket", c.bucket),
		attribute.String("s3.key", key),
	))
	defer span.End()

	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to delete object")
		return errorx.Wrap(errorx.NewUpstreamServiceError().WithCause(err), op)
	}
	return nil
}

// EnsureBucket creates the bucket unless it already exists.
func (c *Client) EnsureBucket(ctx context.Context) error {
	const op = "s3.Client.EnsureBucket"

	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return errorx.Wrap(err, op)
	}

	_, err = c.s3Client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(c.bucket)})
	return errorx.Wrap(err, op)
}

func (c *Client) Bucket() string {
	return c.bucket
}

type Object struct {
	Data        []byte
	ContentType string
}

// Memory is an in process object store, used in tests and when no S3
// endpoint is configured.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]Object)}
}

func (m *Memory) UploadFile(_ context.Context, key string, file io.Reader, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return errorx.Wrap(err, "s3.Memory.UploadFile")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Data: buf.Bytes(), ContentType: contentType}
	return nil
}

func (m *Memory) DeleteFile(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *Memory) Get(key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return Object{}, ErrObjectNotFound
	}
	return obj, nil
}
