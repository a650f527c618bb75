package errorx

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errX = New("x").WithHTTPCode(http.StatusTeapot)
	errY = New("y").WithHTTPCode(http.StatusTeapot)
)

func TestI18nError_Is(t *testing.T) {
	t.Parallel()

	withArgs := errX.WithArgs(map[string]any{"a": 1})
	withCause := errX.WithCause(errors.New("boom"))
	otherCode := errX.WithCode(CodeNotFound)

	assert.ErrorIs(t, withArgs, errX, "args must not change identity")
	assert.ErrorIs(t, withCause, errX, "cause must not change identity")
	assert.NotErrorIs(t, errX, errY, "different keys are different errors")
	assert.NotErrorIs(t, otherCode, errX, "different codes are different errors")

	wrapped := Wrap(withCause, "pkg.Op")
	assert.ErrorIs(t, wrapped, errX)
}

func TestI18nError_WithDoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	base := NewInvalidCredentials()
	_ = base.WithCause(errors.New("cause")).WithArgs(map[string]any{"k": "v"})

	assert.Nil(t, base.Unwrap())
	assert.Empty(t, base.MessageArgs)
	assert.Equal(t, "[INVALID_CREDENTIALS] invalid_credentials", base.Error())
}

func TestI18nError_ConcurrentDecoration(t *testing.T) {
	t.Parallel()

	base := NewNotFound()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := base.WithArgs(map[string]any{"i": i}).WithCause(fmt.Errorf("cause %d", i))
			assert.ErrorIs(t, err, base)
		}()
	}
	wg.Wait()
	assert.Nil(t, base.Unwrap())
}

func TestHTTPStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  *I18nError
		want int
	}{
		{NewInvalidCredentials(), http.StatusUnauthorized},
		{NewTokenExpired(), http.StatusUnauthorized},
		{NewTokenInvalidSignature(), http.StatusUnauthorized},
		{NewEmailExists(), http.StatusConflict},
		{NewDuplicateEntry(), http.StatusConflict},
		{NewInvalidVerificationToken(), http.StatusUnprocessableEntity},
		{NewResourceNotFound("course"), http.StatusNotFound},
		{NewRateLimitExceeded(), http.StatusTooManyRequests},
		{NewForbidden(), http.StatusForbidden},
		{NewInternalError(), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatusCode())
		})
	}
}

func TestIsCode(t *testing.T) {
	t.Parallel()

	err := Wrap(NewNotFound().WithCause(errors.New("no rows")), "repo.Get")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsDuplicateEntry(err))
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestPersistable(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewPersistable(nil))

	inner := NewRateLimitExceeded()
	err := Wrap(NewPersistable(inner), "op")
	assert.True(t, IsPersistable(err))
	assert.ErrorIs(t, err, inner)
	assert.False(t, IsPersistable(inner))
}

func TestWrap(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Wrap(nil, "op"))
	assert.EqualError(t, Wrap(errors.New("x"), "a.B"), "a.B: x")
}
