package family

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// generateToken builds a random join code of the given length from the
// alphanumeric alphabet. Uniqueness is the caller's concern.
func generateToken(length int) (string, error) {
	max := big.NewInt(int64(len(tokenAlphabet)))

	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(tokenAlphabet[n.Int64()])
	}
	return builder.String(), nil
}
