package handlers

import "strings"

// Input bounds shared by every credential endpoint. Addresses are
// canonicalized to lowercase before any lookup or storage; passwords keep
// their case and only lose surrounding whitespace.
const (
	MaxEmailLength    = 254 // RFC 5321 forward-path bound
	MaxPasswordLength = 128
)

// SanitizeEmail canonicalizes the address. Empty or over-long input comes
// back empty and is rejected before it reaches a workflow.
func SanitizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(email) > MaxEmailLength {
		return ""
	}
	return email
}

// SanitizePassword strips surrounding whitespace. Over-long input comes
// back empty.
func SanitizePassword(password string) string {
	password = strings.TrimSpace(password)
	if len(password) > MaxPasswordLength {
		return ""
	}
	return password
}
