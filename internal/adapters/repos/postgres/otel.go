package postgres

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

var (
	tracer = otel.Tracer("sellcourse/internal/adapters/repos/postgres")
	logger = otelslog.NewLogger("sellcourse/internal/adapters/repos/postgres")
)
