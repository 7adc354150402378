package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseHexValue parses a hash value or message given on the command line.
// An optional "0x" prefix is accepted.
func ParseHexValue(text string) ([]byte, error) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "0x")
	if len(text) == 0 {
		return nil, fmt.Errorf("empty hex value")
	}
	b, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid hex value %q: %w", text, err)
	}
	return b, nil
}

// RandomBytes returns n bytes from crypto/rand.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("unable to generate random bytes: %w", err)
	}
	return b, nil
}
