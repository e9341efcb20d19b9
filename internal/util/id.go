package util

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// NewID returns a URL-safe hex string ID used for request ids and refresh tokens.
func NewID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "id-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(b)
}
