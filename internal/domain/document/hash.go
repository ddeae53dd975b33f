package document

import (
	"crypto/md5"
	"encoding/hex"
)

// Hash fingerprints a normalized payload for duplicate detection. It is an
// equality check only and carries no security meaning.
func Hash(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
