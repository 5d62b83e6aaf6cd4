package issuance

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// CodeAlphabet omits 0 so codes can't be misread as the letter O.
	CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ123456789"
	CodeLength   = 15
)

var alphabetSize = big.NewInt(int64(len(CodeAlphabet)))

// GenerateCode draws CodeLength symbols uniformly from CodeAlphabet using the
// system CSPRNG.
func GenerateCode() (string, error) {
	buf := make([]byte, CodeLength)

	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}

		buf[i] = CodeAlphabet[n.Int64()]
	}

	return string(buf), nil
}
