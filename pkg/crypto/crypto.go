package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// MaxCodeDigits bounds GenerateNumericCode so 10^digits fits in an int64.
const MaxCodeDigits = 18

// GenerateNumericCode returns a uniformly random integer in [0, 10^digits),
// zero-padded to exactly digits characters.
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 || digits > MaxCodeDigits {
		return "", fmt.Errorf("invalid code length %d", digits)
	}
	upper := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", fmt.Errorf("failed to generate random code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
