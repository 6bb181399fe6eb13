package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenerateSecureToken creates a random, URL-safe string.
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewTrackingNumber builds a human-readable delivery tracking number,
// e.g. FC-20260828-A3F91B.
func NewTrackingNumber(now time.Time) (string, error) {
	suffix, err := GenerateSecureToken(3)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("FC-%s-%s", now.Format("20060102"), strings.ToUpper(suffix)), nil
}
