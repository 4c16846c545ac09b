// Package password wraps bcrypt hashing so the account service can take the
// hasher as an injected dependency.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when no real hash is available, so that
// login latency does not reveal whether an email is registered.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type Hasher struct {
	cost int
}

func NewHasher() *Hasher {
	return &Hasher{cost: bcrypt.DefaultCost}
}

// Hash returns a bcrypt hash of plain with a per-call random salt.
func (h *Hasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plain matches hash. It never returns an error:
// a malformed hash is simply a mismatch.
func (h *Hasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// DummyCompare burns a bcrypt comparison against a fixed hash. Callers use it
// on unknown emails so both login failure paths cost the same.
func (h *Hasher) DummyCompare(plain string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(plain))
}
