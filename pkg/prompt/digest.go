package prompt

import (
	"crypto/sha256"
	"encoding/hex"
)

func computeDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
