package ids

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// OrderPrefix prefixes the human-readable order number.
	OrderPrefix = "ORD"
	// ProductPrefix prefixes the human-readable catalog id.
	ProductPrefix = "PRD"

	suffixSpace = 100000000
)

// NewBusinessID returns prefix plus a crypto-random 8-digit suffix. The
// value is not guaranteed unique; callers insert under a unique index and
// retry on collision.
func NewBusinessID(prefix string) string {
	n, err := rand.Int(rand.Reader, big.NewInt(suffixSpace))
	if err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	return fmt.Sprintf("%s%08d", prefix, n.Int64())
}

// MaxInsertAttempts bounds the insert-retry loop for collision-checked ids.
const MaxInsertAttempts = 5
