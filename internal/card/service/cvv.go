package service

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strings"

	"cardforge/internal/card/models"
)

// cvvLength is 4 for the 15-digit family (numbers starting 34/37), 3 otherwise.
func cvvLength(number string) int {
	if strings.HasPrefix(number, "34") || strings.HasPrefix(number, "37") {
		return 4
	}
	return 3
}

// DeriveCVV produces the verification code for a generated number.
//
// When seeded, the CVV is a deterministic function of (number, expiry):
// SHA-256 of the concatenation, first eight bytes reduced modulo 10^length,
// zero-padded. Repeated lookups of the same generated card therefore return
// consistent test data. Unseeded, the CVV is uniform random digits.
func DeriveCVV(number string, expiry models.Expiry, seeded bool, rng *rand.Rand) string {
	length := cvvLength(number)

	if seeded {
		digest := sha256.Sum256([]byte(number + expiry.String()))
		value := binary.BigEndian.Uint64(digest[:8])
		mod := uint64(1)
		for i := 0; i < length; i++ {
			mod *= 10
		}
		return fmt.Sprintf("%0*d", length, value%mod)
	}

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(byte('0' + rng.Intn(10)))
	}
	return b.String()
}
