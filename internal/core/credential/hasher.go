package credential

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Hasher derives a keyed BLAKE2b-256 digest of a credential. The digest is
// deterministic so the store can index it, and keyed by a server-side pepper
// so a leaked table cannot be brute-forced offline without the key.
type Hasher struct {
	key [blake2b.Size256]byte
}

// NewHasher derives the MAC key from pepper. Any pepper length is accepted.
func NewHasher(pepper string) *Hasher {
	return &Hasher{key: blake2b.Sum256([]byte(pepper))}
}

// Hash returns the hex-encoded digest of credential.
func (h *Hasher) Hash(credential string) string {
	mac, err := blake2b.New256(h.key[:])
	if err != nil {
		// only reachable with a key longer than 64 bytes
		panic(err)
	}
	_, _ = mac.Write([]byte(credential))
	return hex.EncodeToString(mac.Sum(nil))
}
