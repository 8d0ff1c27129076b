package reservation

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// NewCode returns a fresh unlock code: three random bytes as upper-case hex.
func NewCode() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}
