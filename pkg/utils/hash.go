package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// HashAPIKey returns the hex encoded sha256 of arg. Api keys are only stored
// in this form. No salt is used since the hash is the lookup key, the keys
// themselves are random.
func HashAPIKey(arg string) string {
	sum := sha256.Sum256([]byte(arg))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIKey returns a new random api key.
func GenerateAPIKey() string {
	return "cb_" + strings.ReplaceAll(uuid.NewString(), "-", "") +
		strings.ReplaceAll(uuid.NewString(), "-", "")
}
