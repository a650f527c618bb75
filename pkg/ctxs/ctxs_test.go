package ctxs

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/role"
)

func TestUserRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	_, ok := UserFromCtx(ctx)
	assert.False(t, ok)

	u := &User{ID: user.ID(uuid.New()), Email: "a@b.com", Role: role.Admin}
	got, ok := UserFromCtx(WithUser(ctx, u))
	require.True(t, ok)
	assert.Same(t, u, got)

	_, ok = UserFromCtx(WithUser(ctx, nil))
	assert.False(t, ok)
}

func TestTxMissing(t *testing.T) {
	t.Parallel()

	_, ok := Tx(t.Context())
	assert.False(t, ok)
}
