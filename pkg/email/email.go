// Package email provides small helpers over email addresses.
package email

import (
	"strings"
	"unicode"
)

// Normalize lowercases and trims an address for storage and lookups.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsPlausible is a cheap syntactic gate for signup input. Deliverability is
// proven by the OTP flow, not here.
func IsPlausible(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t")
}

// DisplayName derives a readable fallback name from the address local part
// when a signup omits the full name. "jane.doe@example.com" becomes
// "Jane Doe".
func DisplayName(email string) string {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "New Member"
	}

	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
