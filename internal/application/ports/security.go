package ports

// PasswordHasher derives and verifies salted password hashes (Argon2id).
type PasswordHasher interface {
	// Hash derives a hash for the plaintext with a fresh random salt.
	Hash(password string) (hash, salt string, err error)
	// Verify is constant-time. A plain mismatch is (false, nil); a
	// malformed stored hash or salt is domerrors.ErrCorruptCredential.
	Verify(password, hash, salt string) (bool, error)
	// DummyTarget returns a fixed hash/salt pair for burning an equivalent
	// verification when no account exists, keeping the timing profile of
	// unknown-email and wrong-password failures identical.
	DummyTarget() (hash, salt string)
}

// TokenIssuer mints and verifies signed, time-limited session credentials.
type TokenIssuer interface {
	Issue(accountID string) (token string, expiresIn int64, err error)
	// Verify returns the account id the token proves. Failures are typed
	// (domerrors.ErrTokenExpired, ErrBadSignature, ErrTokenMalformed) for
	// internal logging only; the HTTP layer collapses them into one
	// generic unauthenticated response.
	Verify(token string) (accountID string, err error)
}
