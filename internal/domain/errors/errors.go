package errors

import "errors"

// Sentinel errors for the credential workflow. Handlers map these to HTTP
// status; security-relevant ones collapse into ambiguous responses before
// they reach the client.
var (
	// ErrAccountExists is registration-only and intentionally visible:
	// registration reveals existence at this boundary alone.
	ErrAccountExists = errors.New("account already exists for this address")

	// ErrAccountNotFound is internal; it never reaches a client verbatim.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateEmail is the storage-layer race-checked unique violation.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrTokenNotFound covers absent, expired, and consumed reset tokens.
	// The store fails closed: all three are indistinguishable to callers.
	ErrTokenNotFound = errors.New("reset token not found")

	// ErrTokenLifecycle is an internal token-store fault (generate/persist),
	// surfaced as a generic server error.
	ErrTokenLifecycle = errors.New("reset token lifecycle failure")

	// ErrHashing is an entropy-source or KDF failure.
	ErrHashing = errors.New("password hashing failure")

	// ErrCorruptCredential means a stored hash or salt failed to decode.
	ErrCorruptCredential = errors.New("stored credential is malformed")

	// ErrStorage wraps collaborator storage failures, including timeouts.
	ErrStorage = errors.New("storage unavailable")

	// Session token verification failures. Distinguishable internally for
	// logging, collapsed to one generic unauthenticated response outward.
	ErrTokenExpired   = errors.New("session token expired")
	ErrBadSignature   = errors.New("session token signature mismatch")
	ErrTokenMalformed = errors.New("session token malformed")
)
