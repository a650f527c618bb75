package revocation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/otelx"
)

const DefaultKeyPrefix = "sellcourse:revoked:"

var (
	tracer = otel.Tracer("sellcourse/internal/adapters/services/revocation")
	logger = otelslog.NewLogger("sellcourse/internal/adapters/services/revocation")
)

// Redis remembers revoked token ids until the token would have expired anyway.
type Redis struct {
	tracer trace.Tracer
	logger *slog.Logger
	client *redis.Client
	prefix string
}

type Args struct {
	Tracer    trace.Tracer
	Logger    *slog.Logger
	Client    *redis.Client
	KeyPrefix string
}

// NewRedis panics if Client is nil.
func NewRedis(args Args) *Redis {
	if args.Client == nil {
		panic("redis client cannot be nil")
	}
	r := &Redis{
		tracer: args.Tracer,
		logger: args.Logger,
		client: args.Client,
		prefix: args.KeyPrefix,
	}
	if r.tracer == nil {
		r.tracer = tracer
	}
	if r.logger == nil {
		r.logger = logger
	}
	if r.prefix == "" {
		r.prefix = DefaultKeyPrefix
	}
	return r
}

func (r *Redis) Revoke(ctx context.Context, jti string, until time.Time) error {
	const op = "revocation.Redis.Revoke"
	ctx, span := r.tracer.Start(ctx, "Redis.Revoke")
	defer span.End()

	ttl := time.Until(until)
	if jti == "" || ttl <= 0 {
		return nil
	}

	if err := r.client.Set(ctx, r.prefix+jti, "revoked", ttl).Err(); err != nil {
		otelx.RecordSpanError(span, err, "failed to store revoked token")
		return errorx.Wrap(errorx.NewServiceUnavailable().WithCause(err), op)
	}
	return nil
}

func (r *Redis) IsRevoked(ctx context.Context, jti string) (bool, error) {
	const op = "revocation.Redis.IsRevoked"
	ctx, span := r.tracer.Start(ctx, "Redis.IsRevoked")
	defer span.End()

	if jti == "" {
		return false, nil
	}

	_, err := r.client.Get(ctx, r.prefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to look up revoked token")
		return false, errorx.Wrap(errorx.NewServiceUnavailable().WithCause(err), op)
	}
	return true, nil
}

func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

// Memory keeps revocations in process. Used when no Redis is configured and
// in tests; entries are lost on restart.
type Memory struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{revoked: make(map[string]time.Time), now: time.Now}
}

func (m *Memory) Revoke(_ context.Context, jti string, until time.Time) error {
	if jti == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, exp := range m.revoked {
		if !now.Before(exp) {
			delete(m.revoked, id)
		}
	}
	if now.Before(until) {
		m.revoked[jti] = until
	}
	return nil
}

func (m *Memory) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.revoked[jti]
	return ok && m.now().Before(until), nil
}
