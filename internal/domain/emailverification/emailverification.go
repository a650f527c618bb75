package emailverification

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/event"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/env"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/randcode"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/validationx"
)

const (
	TokenLength = 32
	TTL         = time.Hour
)

type ID uuid.UUID

func NewID() ID {
	return ID(uuid.New())
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	uid, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*id = ID(uid)
	return nil
}

// Verification is the pending proof that someone controls an email address.
// There is at most one per email; requesting again overwrites the token.
type Verification struct {
	event.Recorder
	id        ID
	email     string
	token     string
	createdAt time.Time
	expiresAt time.Time
}

// New starts a verification for email issued at now. In dev and prod the
// domain must end in a real public suffix.
func New(email string, mode env.Mode, now time.Time) (*Verification, error) {
	const op = "emailverification.New"

	if err := validation.Validate(email, validationx.EmailRules...); err != nil {
		return nil, errorx.Wrap(err, op)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errorx.Wrap(ErrInvalidEmail.WithCause(err), op)
	}
	if (mode == env.Dev || mode == env.Prod) && !hasRealTLD(email) {
		return nil, errorx.Wrap(ErrEmailDomainNotAllowed, op)
	}

	v := &Verification{
		id:    NewID(),
		email: email,
	}
	if err := v.issue(now.UTC()); err != nil {
		return nil, errorx.Wrap(err, op)
	}

	return v, nil
}

type RehydrateArgs struct {
	ID        ID
	Email     string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func Rehydrate(args RehydrateArgs) *Verification {
	return &Verification{
		id:        args.ID,
		email:     args.Email,
		token:     args.Token,
		createdAt: args.CreatedAt,
		expiresAt: args.ExpiresAt,
	}
}

// Renew replaces the token and restarts the TTL from now. The previous
// token stops matching immediately.
func (v *Verification) Renew(now time.Time) error {
	const op = "emailverification.Verification.Renew"
	if v == nil {
		return errorx.Wrap(errors.New("verification is nil"), op)
	}
	return errorx.Wrap(v.issue(now.UTC()), op)
}

func (v *Verification) issue(now time.Time) error {
	token, err := randcode.GenerateToken(TokenLength)
	if err != nil {
		return err
	}

	v.token = token
	v.createdAt = now
	v.expiresAt = now.Add(TTL)

	v.AddEvent(&VerificationRequested{
		Header:         event.NewEventHeader(),
		VerificationID: v.id,
		Email:          v.email,
		Token:          v.token,
		ExpiresAt:      v.expiresAt,
	})

	return nil
}

// IsExpiredAt reports whether t is at or past the expiry instant.
func (v *Verification) IsExpiredAt(t time.Time) bool {
	if v == nil || v.expiresAt.IsZero() {
		return true
	}
	return !t.Before(v.expiresAt)
}

// Matches reports whether token and email both belong to this record and it
// is still unexpired at now.
func (v *Verification) Matches(token, email string, now time.Time) bool {
	if v == nil || token == "" {
		return false
	}
	if v.IsExpiredAt(now) {
		return false
	}
	if !strings.EqualFold(v.email, email) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(v.token), []byte(token)) == 1
}

func (v *Verification) ID() ID {
	if v == nil {
		return ID{}
	}
	return v.id
}

func (v *Verification) Email() string {
	if v == nil {
		return ""
	}
	return v.email
}

func (v *Verification) Token() string {
	if v == nil {
		return ""
	}
	return v.token
}

func (v *Verification) CreatedAt() time.Time {
	if v == nil {
		return time.Time{}
	}
	return v.createdAt
}

func (v *Verification) ExpiresAt() time.Time {
	if v == nil {
		return time.Time{}
	}
	return v.expiresAt
}

// Link builds the URL sent to the user: baseURL?token=...&email=...
func Link(baseURL, token, email string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	q.Set("email", email)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func hasRealTLD(addr string) bool {
	at := strings.LastIndexByte(addr, '@')
	if at < 0 {
		return false
	}
	domain := addr[at+1:]

	suffix, icann := publicsuffix.PublicSuffix(domain)
	// a bare suffix such as "localhost" has no registrable part
	return icann && suffix != domain
}
