package access

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// codeAlphabet excludes the visually ambiguous I, O, 0 and 1. Its length
// divides 256, so reducing a random byte modulo the length stays uniform.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	// MonthlyCodeLength is used for emailed monthly codes, PurchaseCodeLength
	// for codes minted off a completed checkout.
	MonthlyCodeLength  = 8
	PurchaseCodeLength = 6

	errLengthPositiveFmt      = "length must be positive"
	errGenerateRandomBytesFmt = "failed to generate random bytes: %w"
)

// GenerateCode returns a human-typable code of exactly length characters drawn
// from the restricted alphabet. An exhausted entropy source is a fatal
// environment error surfaced to the caller.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf(errLengthPositiveFmt)
	}

	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf(errGenerateRandomBytesFmt, err)
	}

	var b strings.Builder
	b.Grow(length)
	for _, by := range bytes {
		b.WriteByte(codeAlphabet[int(by)%len(codeAlphabet)])
	}
	return b.String(), nil
}

// NormalizeCode uppercases a human-entered code and strips spaces and dashes.
// Used on the email+code login path.
func NormalizeCode(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		switch r {
		case ' ', '\t', '\n', '\r', '-':
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// NormalizeCodeStrict additionally drops every non-alphanumeric rune. Used on
// the standalone redemption path, which tolerates pasted formatting.
func NormalizeCodeStrict(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

// CanonicalEmail lowercases and trims for consistent lookups.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashCode is the deterministic one-way hash stored in place of a plaintext
// code. Callers normalize first.
func HashCode(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
