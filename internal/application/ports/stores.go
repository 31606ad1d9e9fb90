package ports

import (
	"context"
	"time"

	"github.com/credoauth/credo/internal/domain"
)

// AccountStore defines durable persistence for accounts. Lookups take the
// already-normalized email; absence is (nil, nil), never an error.
type AccountStore interface {
	// Create inserts the account. A concurrent insert for the same
	// normalized email surfaces as domerrors.ErrDuplicateEmail, checked at
	// the storage layer, not just pre-checked.
	Create(ctx context.Context, account *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	// UpdatePassword replaces hash and salt together; id and email are
	// untouched.
	UpdatePassword(ctx context.Context, id domain.AccountID, hash, salt string) error
}

// ResetTokenStore persists reset tokens keyed by their SHA-256 hash. The
// plaintext token never reaches the store.
type ResetTokenStore interface {
	Put(ctx context.Context, tokenHash string, accountID domain.AccountID, ttl time.Duration) error
	// Get fails closed: absent, expired, and consumed tokens all return
	// domerrors.ErrTokenNotFound.
	Get(ctx context.Context, tokenHash string) (domain.AccountID, error)
	// ConsumeAtomic marks the token used and returns its account id
	// exactly once. Of two racing redemptions, exactly one succeeds; the
	// other observes domerrors.ErrTokenNotFound.
	ConsumeAtomic(ctx context.Context, tokenHash string) (domain.AccountID, error)
	// InvalidateAllForAccount retires every live token for the account, so
	// at most one token is live after a subsequent Put.
	InvalidateAllForAccount(ctx context.Context, accountID domain.AccountID) error
}
