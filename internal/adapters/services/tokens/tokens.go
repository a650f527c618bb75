package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/role"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/i18nx"
)

const (
	DefaultIssuer     = "sellcourse_auth"
	DefaultAccessTTL  = 2 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

var ErrWrongTokenType = errorx.NewUnauthorized().WithKey(i18nx.KeyWrongTokenType)

// Claims is the payload of both token types. Role is only set on access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role role.Role `json:"role,omitempty"`
	Type Type      `json:"typ"`
}

// Token is a signed token together with the claims needed by callers that
// do not want to parse it back.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

type Service struct {
	keys       KeySet
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	method     *jwt.SigningMethodHMAC
	now        func() time.Time
}

type Args struct {
	Keys       KeySet
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewService panics if Keys is nil.
func NewService(args Args) *Service {
	if args.Keys == nil {
		panic("token key set cannot be nil")
	}

	s := &Service{
		keys:       args.Keys,
		issuer:     args.Issuer,
		accessTTL:  args.AccessTTL,
		refreshTTL: args.RefreshTTL,
		method:     jwt.SigningMethodHS256,
		now:        args.Now,
	}
	if s.issuer == "" {
		s.issuer = DefaultIssuer
	}
	if s.accessTTL <= 0 {
		s.accessTTL = DefaultAccessTTL
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = DefaultRefreshTTL
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

func (s *Service) AccessTTL() time.Duration  { return s.accessTTL }
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *Service) IssueAccessToken(subject string, r role.Role) (Token, error) {
	const op = "tokens.Service.IssueAccessToken"
	if !r.IsValid() {
		return Token{}, errorx.Wrap(fmt.Errorf("invalid role %q", r), op)
	}
	t, err := s.issue(subject, TypeAccess, r, s.accessTTL)
	return t, errorx.Wrap(err, op)
}

func (s *Service) IssueRefreshToken(subject string) (Token, error) {
	const op = "tokens.Service.IssueRefreshToken"
	t, err := s.issue(subject, TypeRefresh, "", s.refreshTTL)
	return t, errorx.Wrap(err, op)
}

func (s *Service) issue(subject string, typ Type, r role.Role, ttl time.Duration) (Token, error) {
	if subject == "" {
		return Token{}, errors.New("subject is required")
	}

	now := s.now().UTC().Truncate(time.Second)
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Role: r,
		Type: typ,
	}

	key := s.keys.SigningKey()
	token := jwt.NewWithClaims(s.method, claims)
	token.Header["kid"] = key.ID

	signed, err := token.SignedString(key.Secret)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign %s token: %w", typ, err)
	}

	return Token{Value: signed, ID: claims.ID, ExpiresAt: exp}, nil
}

// Verify checks the signature and then the expiry. A token with a valid
// signature past its expiry yields TokenExpired, anything else that fails
// yields TokenInvalidSignature.
func (s *Service) Verify(token string) (*Claims, error) {
	const op = "tokens.Service.Verify"

	claims, err := s.parse(token)
	if err != nil {
		return nil, errorx.Wrap(err, op)
	}
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return nil, errorx.Wrap(errorx.NewTokenExpired(), op)
	}

	return claims, nil
}

// VerifyType is Verify plus a check of the typ claim.
func (s *Service) VerifyType(token string, typ Type) (*Claims, error) {
	const op = "tokens.Service.VerifyType"

	claims, err := s.Verify(token)
	if err != nil {
		return nil, errorx.Wrap(err, op)
	}
	if claims.Type != typ {
		return nil, errorx.Wrap(ErrWrongTokenType, op)
	}
	return claims, nil
}

// ExtractSubject returns the subject of a correctly signed token without
// looking at its expiry.
func (s *Service) ExtractSubject(token string) (string, error) {
	const op = "tokens.Service.ExtractSubject"

	claims, err := s.parse(token)
	if err != nil {
		return "", errorx.Wrap(err, op)
	}
	if claims.Subject == "" {
		return "", errorx.Wrap(errorx.NewTokenInvalidSignature().WithCause(errors.New("missing subject")), op)
	}
	return claims.Subject, nil
}

func (s *Service) parse(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, s.keyFunc,
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, errorx.NewTokenInvalidSignature().WithCause(err)
	}
	if claims.Issuer != s.issuer {
		return nil, errorx.NewTokenInvalidSignature().WithCause(fmt.Errorf("unexpected issuer %q", claims.Issuer))
	}
	if claims.Type != TypeAccess && claims.Type != TypeRefresh {
		return nil, errorx.NewTokenInvalidSignature().WithCause(fmt.Errorf("unknown token type %q", claims.Type))
	}
	if claims.Type == TypeAccess && !claims.Role.IsValid() {
		return nil, errorx.NewTokenInvalidSignature().WithCause(fmt.Errorf("invalid role %q", claims.Role))
	}

	return &claims, nil
}

func (s *Service) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("missing kid header")
	}
	key, ok := s.keys.VerificationKey(kid)
	if !ok {
		return nil, fmt.Errorf("unknown kid %q", kid)
	}
	return key.Secret, nil
}
