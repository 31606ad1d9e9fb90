package resettoken

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/credoauth/credo/internal/application/ports"
	"github.com/credoauth/credo/internal/domain"
	domerrors "github.com/credoauth/credo/internal/domain/errors"
)

// RawTokenBytes is the entropy of a reset token; the wire form is its hex
// encoding (TokenLength characters).
const (
	RawTokenBytes = 32
	TokenLength   = RawTokenBytes * 2

	// DefaultTTL bounds how long an unconsumed token stays redeemable.
	DefaultTTL = time.Hour
)

// Manager owns the full reset-token lifecycle: creation, lookup, and
// single-use consumption. Only the SHA-256 of a token is handed to the
// store; the plaintext leaves the process solely inside the reset email.
type Manager struct {
	store ports.ResetTokenStore
	ttl   time.Duration
}

func NewManager(store ports.ResetTokenStore, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl}
}

// HashToken returns the storage key for a token string.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IsWellFormed is a cheap shape check usable before any storage round-trip.
func IsWellFormed(token string) bool {
	if len(token) != TokenLength {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Issue mints a fresh token for the account and retires any prior live one,
// so at most one token per account is redeemable at a time. Failures are
// ErrTokenLifecycle: an internal fault, not an enumeration signal.
func (m *Manager) Issue(ctx context.Context, accountID domain.AccountID) (string, error) {
	raw := make([]byte, RawTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("%w: entropy: %v", domerrors.ErrTokenLifecycle, err)
	}
	token := hex.EncodeToString(raw)
	if err := m.store.InvalidateAllForAccount(ctx, accountID); err != nil {
		return "", fmt.Errorf("%w: invalidate prior: %v", domerrors.ErrTokenLifecycle, err)
	}
	if err := m.store.Put(ctx, HashToken(token), accountID, m.ttl); err != nil {
		return "", fmt.Errorf("%w: persist: %v", domerrors.ErrTokenLifecycle, err)
	}
	return token, nil
}

// Lookup resolves a token without consuming it. Fails closed with
// ErrTokenNotFound for absent, expired, and consumed tokens alike.
func (m *Manager) Lookup(ctx context.Context, token string) (domain.AccountID, error) {
	if !IsWellFormed(token) {
		return domain.AccountID{}, domerrors.ErrTokenNotFound
	}
	return m.store.Get(ctx, HashToken(token))
}

// Consume atomically redeems the token. Exactly one of two concurrent
// redemptions succeeds; the other observes ErrTokenNotFound.
func (m *Manager) Consume(ctx context.Context, token string) (domain.AccountID, error) {
	if !IsWellFormed(token) {
		return domain.AccountID{}, domerrors.ErrTokenNotFound
	}
	return m.store.ConsumeAtomic(ctx, HashToken(token))
}
