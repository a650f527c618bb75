package randcode

import (
	"crypto/rand"
	"math/big"
)

const (
	upperDigits  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// GenerateAlphaNumericCode returns an uppercase code suitable for reading aloud.
func GenerateAlphaNumericCode(length int) (string, error) {
	return generate(length, upperDigits)
}

// GenerateToken returns a mixed case alphanumeric token.
func GenerateToken(length int) (string, error) {
	return generate(length, alphanumeric)
}

func generate(length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", nil
	}
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}

	return string(b), nil
}
