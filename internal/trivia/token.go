package trivia

import (
	"crypto/rand"
	"math/big"
)

// tokenAlphabet avoids easily-confused characters (0/O, 1/I/L).
const tokenAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateToken returns a random token of the given length drawn from the
// unambiguous alphabet.
func GenerateToken(length int) (string, error) {
	token := make([]byte, length)
	for i := range token {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(tokenAlphabet))))
		if err != nil {
			return "", err
		}
		token[i] = tokenAlphabet[num.Int64()]
	}
	return string(token), nil
}
