package tokens

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// MinSecretLen is the shortest HMAC secret accepted for HS256.
const MinSecretLen = 32

// Key is an HMAC secret identified by the kid header of the tokens it signs.
type Key struct {
	ID     string
	Secret []byte
}

func NewKey(id string, secret []byte) (Key, error) {
	if id == "" {
		return Key{}, errors.New("key id is required")
	}
	if len(secret) < MinSecretLen {
		return Key{}, fmt.Errorf("secret must be at least %d bytes", MinSecretLen)
	}
	return Key{ID: id, Secret: append([]byte(nil), secret...)}, nil
}

// GenerateKey creates a random key. Tokens signed with it do not survive a
// restart, which suits local runs without JWT_SECRET.
func GenerateKey() (Key, error) {
	secret := make([]byte, MinSecretLen)
	if _, err := rand.Read(secret); err != nil {
		return Key{}, fmt.Errorf("failed to read random secret: %w", err)
	}
	return Key{ID: uuid.NewString(), Secret: secret}, nil
}

type KeySet interface {
	SigningKey() Key
	VerificationKey(kid string) (Key, bool)
}

// StaticKeySet signs with one key and also accepts a fixed list of
// previous keys, which allows rotating the secret without logging users out.
type StaticKeySet struct {
	signing Key
	keys    map[string]Key
}

func NewStaticKeySet(signing Key, previous ...Key) *StaticKeySet {
	keys := make(map[string]Key, len(previous)+1)
	for _, k := range previous {
		keys[k.ID] = k
	}
	keys[signing.ID] = signing

	return &StaticKeySet{signing: signing, keys: keys}
}

func (s *StaticKeySet) SigningKey() Key {
	return s.signing
}

func (s *StaticKeySet) VerificationKey(kid string) (Key, bool) {
	k, ok := s.keys[kid]
	return k, ok
}
