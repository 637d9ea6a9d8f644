package checkout

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Alphabet excludes easily confused characters (0/O, 1/I/L, U/V).
const orderNumberAlphabet = "ABCDEFGHJKMNPQRSTWXYZ23456789"

const orderNumberSuffixLen = 6

// GenerateOrderNumber produces a human-readable order number of the form
// ORD-YYYYMMDD-XXXXXX. The random suffix keeps collisions rare; the unique
// index on user_orders.order_number catches the rest.
func GenerateOrderNumber(now time.Time) (string, error) {
	buf := make([]byte, orderNumberSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading randomness: %w", err)
	}
	for i, b := range buf {
		buf[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), string(buf)), nil
}
