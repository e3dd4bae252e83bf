package invitation

import (
	"crypto/rand"
	"encoding/hex"
)

// newToken returns 192 bits of crypto/rand material as hex. Uniqueness is
// enforced by the token's unique index, but at this entropy a collision is
// not a practical concern.
func newToken() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		panic("invitation: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
