package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/credoauth/credo/internal/application/ports"
	"github.com/credoauth/credo/internal/domain"
	domerrors "github.com/credoauth/credo/internal/domain/errors"
)

const (
	createResetTokenSQL = `INSERT INTO reset_tokens (token_hash, account_id, expires_at, created_at)
VALUES ($1, $2, $3, NOW())`
	getResetTokenSQL = `SELECT account_id FROM reset_tokens
WHERE token_hash = $1 AND consumed_at IS NULL AND expires_at > NOW()`
	// The conditional update is the atomic consume: the row flips to
	// consumed exactly once, so of two concurrent redemptions only one
	// gets the RETURNING row.
	consumeResetTokenSQL = `UPDATE reset_tokens SET consumed_at = NOW()
WHERE token_hash = $1 AND consumed_at IS NULL AND expires_at > NOW()
RETURNING account_id`
	invalidateResetTokensSQL = `UPDATE reset_tokens SET consumed_at = NOW()
WHERE account_id = $1 AND consumed_at IS NULL`
	purgeResetTokensSQL = `DELETE FROM reset_tokens
WHERE consumed_at IS NOT NULL OR expires_at < $1`
)

// ResetTokenRepository implements ports.ResetTokenStore on postgres. Expiry
// is checked lazily in the WHERE clauses; expired rows are just never
// returned again.
type ResetTokenRepository struct {
	db DB
}

func NewResetTokenRepository(db DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func (r *ResetTokenRepository) Put(ctx context.Context, tokenHash string, accountID domain.AccountID, ttl time.Duration) error {
	_, err := r.db.Exec(ctx, createResetTokenSQL, tokenHash, accountID.UUID, time.Now().Add(ttl))
	if err != nil {
		return fmt.Errorf("%w: put reset token: %v", domerrors.ErrStorage, err)
	}
	return nil
}

func (r *ResetTokenRepository) Get(ctx context.Context, tokenHash string) (domain.AccountID, error) {
	var id domain.AccountID
	err := r.db.QueryRow(ctx, getResetTokenSQL, tokenHash).Scan(&id.UUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AccountID{}, domerrors.ErrTokenNotFound
		}
		return domain.AccountID{}, fmt.Errorf("%w: get reset token: %v", domerrors.ErrStorage, err)
	}
	return id, nil
}

func (r *ResetTokenRepository) ConsumeAtomic(ctx context.Context, tokenHash string) (domain.AccountID, error) {
	var id domain.AccountID
	err := r.db.QueryRow(ctx, consumeResetTokenSQL, tokenHash).Scan(&id.UUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AccountID{}, domerrors.ErrTokenNotFound
		}
		return domain.AccountID{}, fmt.Errorf("%w: consume reset token: %v", domerrors.ErrStorage, err)
	}
	return id, nil
}

func (r *ResetTokenRepository) InvalidateAllForAccount(ctx context.Context, accountID domain.AccountID) error {
	_, err := r.db.Exec(ctx, invalidateResetTokensSQL, accountID.UUID)
	if err != nil {
		return fmt.Errorf("%w: invalidate reset tokens: %v", domerrors.ErrStorage, err)
	}
	return nil
}

// PurgeDeadResetTokens deletes consumed rows and rows expired before the
// cutoff. Lookups never see those rows anyway; this is table hygiene.
func (r *ResetTokenRepository) PurgeDeadResetTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, purgeResetTokensSQL, before)
	if err != nil {
		return 0, fmt.Errorf("%w: purge reset tokens: %v", domerrors.ErrStorage, err)
	}
	return tag.RowsAffected(), nil
}

var _ ports.ResetTokenStore = (*ResetTokenRepository)(nil)
