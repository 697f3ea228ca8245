package utils

import (
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"
	"strings"
)

// ReferenceCharset leaves out 0/O, 1/I/L so references survive being read aloud or handwritten.
const ReferenceCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// ReferenceLength is the number of symbols in a reference, excluding the dash.
const ReferenceLength = 8

var referencePattern = regexp.MustCompile(`^[` + ReferenceCharset + `]{2}-[` + ReferenceCharset + `]{6}$`)

// GenerateCode draws n symbols from charset with crypto/rand (rand.Int avoids modulo bias).
func GenerateCode(charset string, n int) (string, error) {
	if n <= 0 || charset == "" {
		return "", errors.New("invalid length")
	}
	var sb strings.Builder
	alphaLen := big.NewInt(int64(len(charset)))
	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, alphaLen)
		if err != nil {
			return "", err
		}
		sb.WriteByte(charset[num.Int64()])
	}
	return sb.String(), nil
}

// GenerateBookingReference → "XX-XXXXXX"
func GenerateBookingReference() (string, error) {
	raw, err := GenerateCode(ReferenceCharset, ReferenceLength)
	if err != nil {
		return "", err
	}
	return raw[:2] + "-" + raw[2:], nil
}

// NormalizeReference trims and upper-cases a reference typed by a customer.
func NormalizeReference(ref string) string {
	return strings.ToUpper(strings.TrimSpace(ref))
}

// IsValidReferenceFormat reports whether ref matches the generated format.
func IsValidReferenceFormat(ref string) bool {
	return referencePattern.MatchString(NormalizeReference(ref))
}

// NormalizeEmail trims and lower-cases an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MaskEmail returns masked email for safe display
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}
	local := parts[0]
	domain := parts[1]

	maskedLocal := local
	if len(local) > 2 {
		maskedLocal = local[:1] + strings.Repeat("*", len(local)-2) + local[len(local)-1:]
	} else if len(local) == 2 {
		maskedLocal = local[:1] + "*"
	}

	domainParts := strings.Split(domain, ".")
	if len(domainParts) >= 2 && len(domainParts[0]) > 1 {
		domainParts[0] = domainParts[0][:1] + strings.Repeat("*", len(domainParts[0])-1)
	}

	return maskedLocal + "@" + strings.Join(domainParts, ".")
}
