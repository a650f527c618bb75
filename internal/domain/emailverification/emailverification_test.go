package emailverification_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/emailverification"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/env"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	t.Parallel()

	v, err := emailverification.New("a@b.com", env.Test, t0)
	require.NoError(t, err)

	assert.Equal(t, "a@b.com", v.Email())
	assert.Len(t, v.Token(), emailverification.TokenLength)
	assert.Regexp(t, `^[A-Za-z0-9]+$`, v.Token())
	assert.Equal(t, t0, v.CreatedAt())
	assert.Equal(t, t0.Add(3600*time.Second), v.ExpiresAt())

	events := v.GetUncommittedEvents()
	require.Len(t, events, 1)
	requested := events[0].(*emailverification.VerificationRequested)
	assert.Equal(t, v.Token(), requested.Token)
	assert.Equal(t, v.ExpiresAt(), requested.ExpiresAt)
	assert.Equal(t, emailverification.EventStreamName, requested.GetStreamName())
}

func TestNew_InvalidEmail(t *testing.T) {
	t.Parallel()

	for _, email := range []string{"", "nope", "a@", "@b.com"} {
		_, err := emailverification.New(email, env.Test, t0)
		assert.Error(t, err, email)
	}
}

func TestNew_RealTLDRequiredOutsideTest(t *testing.T) {
	t.Parallel()

	_, err := emailverification.New("dev@service.localhost", env.Prod, t0)
	assert.ErrorIs(t, err, emailverification.ErrEmailDomainNotAllowed)

	_, err = emailverification.New("dev@service.localhost", env.Test, t0)
	assert.NoError(t, err)

	_, err = emailverification.New("dev@example.co.uk", env.Prod, t0)
	assert.NoError(t, err)
}

func TestMatches(t *testing.T) {
	t.Parallel()

	v := emailverification.Rehydrate(emailverification.RehydrateArgs{
		ID:        emailverification.NewID(),
		Email:     "a@b.com",
		Token:     "T1T1T1T1T1T1T1T1T1T1T1T1T1T1T1T1",
		CreatedAt: t0,
		ExpiresAt: t0.Add(emailverification.TTL),
	})
	now := t0.Add(time.Minute)

	assert.True(t, v.Matches("T1T1T1T1T1T1T1T1T1T1T1T1T1T1T1T1", "a@b.com", now))
	assert.True(t, v.Matches("T1T1T1T1T1T1T1T1T1T1T1T1T1T1T1T1", "A@B.com", now))
	assert.False(t, v.Matches("T2T2T2T2T2T2T2T2T2T2T2T2T2T2T2T2", "a@b.com", now))
	assert.False(t, v.Matches("T1T1T1T1T1T1T1T1T1T1T1T1T1T1T1T1", "c@b.com", now))
	assert.False(t, v.Matches("", "a@b.com", now))
}

func TestIsExpiredAt(t *testing.T) {
	t.Parallel()

	v := emailverification.Rehydrate(emailverification.RehydrateArgs{
		Email:     "a@b.com",
		Token:     "tok",
		CreatedAt: t0,
		ExpiresAt: t0.Add(3600 * time.Second),
	})

	assert.False(t, v.IsExpiredAt(t0))
	assert.False(t, v.IsExpiredAt(t0.Add(3599*time.Second)))
	assert.True(t, v.IsExpiredAt(t0.Add(3600*time.Second)), "expiry instant is already expired")
	assert.True(t, v.Matches("tok", "a@b.com", t0.Add(3599*time.Second)))
	assert.False(t, v.Matches("tok", "a@b.com", t0.Add(3600*time.Second)), "expired record never matches")

	var nilV *emailverification.Verification
	assert.True(t, nilV.IsExpiredAt(t0))
	assert.False(t, nilV.Matches("tok", "a@b.com", t0))
}

func TestRenew(t *testing.T) {
	t.Parallel()

	v, err := emailverification.New("a@b.com", env.Test, t0)
	require.NoError(t, err)
	first := v.Token()

	// immediately after the first request
	require.NoError(t, v.Renew(t0.Add(time.Second)))
	second := v.Token()

	assert.NotEqual(t, first, second)
	assert.Equal(t, t0.Add(time.Second), v.CreatedAt())
	assert.Equal(t, t0.Add(time.Second).Add(emailverification.TTL), v.ExpiresAt())
	assert.False(t, v.Matches(first, "a@b.com", t0.Add(2*time.Second)), "previous token is replaced")
	assert.True(t, v.Matches(second, "a@b.com", t0.Add(2*time.Second)))

	events := v.GetUncommittedEvents()
	require.Len(t, events, 2)
	assert.Equal(t, second, events[1].(*emailverification.VerificationRequested).Token)

	var nilV *emailverification.Verification
	assert.Error(t, nilV.Renew(t0))
}

func TestLink(t *testing.T) {
	t.Parallel()

	link, err := emailverification.Link("https://app.example.com/verify", "Tok123", "a+b@c.com")
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/verify", u.Path)
	assert.Equal(t, "Tok123", u.Query().Get("token"))
	assert.Equal(t, "a+b@c.com", u.Query().Get("email"))
}
