package visitor

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashLen is the number of hex characters kept from the digest. Truncation
// bounds visitor-set storage; collisions are an accepted trade-off, not a
// security boundary.
const HashLen = 16

// Unknown is substituted when the client address is unavailable.
const Unknown = "unknown"

// Hash returns a stable anonymous token for addr on the given calendar day
// (YYYY-MM-DD). The date is part of the input, so the same address hashes to
// a different token every day: same-day dedup works, cross-day correlation
// does not. Only the token is ever stored, never the address.
func Hash(addr, date string) string {
	if addr == "" {
		addr = Unknown
	}
	sum := sha256.Sum256([]byte(addr + date))
	return hex.EncodeToString(sum[:])[:HashLen]
}
