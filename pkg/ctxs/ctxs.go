package ctxs

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/role"
)

type ctxKey int

const (
	txKey ctxKey = iota
	userKey
)

// User is the authenticated principal resolved from an access token.
type User struct {
	ID    user.ID
	Email string
	Role  role.Role
	// TokenID is the jti of the access token used for the request.
	TokenID string
}

func (u *User) SetSpanAttrs(span trace.Span) {
	if u == nil {
		return
	}
	span.SetAttributes(
		attribute.String("user.id", u.ID.String()),
		attribute.String("user.role", u.Role.String()),
	)
}

func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

func Tx(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey).(pgx.Tx)
	return tx, ok && tx != nil
}

func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromCtx(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userKey).(*User)
	return user, ok && user != nil
}
