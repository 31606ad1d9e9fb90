package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/credoauth/credo/internal/application/ports"
	"github.com/credoauth/credo/internal/domain"
	domerrors "github.com/credoauth/credo/internal/domain/errors"
)

// DB is the slice of pgxpool.Pool the repositories need. pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	createAccountSQL = `INSERT INTO accounts (id, email, password_hash, password_salt, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	getAccountByEmailSQL = `SELECT id, email, password_hash, password_salt, created_at, updated_at
FROM accounts WHERE email = $1`
	getAccountByIDSQL = `SELECT id, email, password_hash, password_salt, created_at, updated_at
FROM accounts WHERE id = $1`
	updateAccountPasswordSQL = `UPDATE accounts SET password_hash = $1, password_salt = $2, updated_at = NOW()
WHERE id = $3`
)

// AccountRepository implements ports.AccountStore. The accounts table has a
// unique index on email (already normalized by the caller), which is what
// makes Create race-checked rather than merely pre-checked.
type AccountRepository struct {
	db DB
}

func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.db.Exec(ctx, createAccountSQL,
		account.ID.UUID, account.Email, account.PasswordHash, account.PasswordSalt,
		account.CreatedAt, account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domerrors.ErrDuplicateEmail
		}
		return fmt.Errorf("%w: create account: %v", domerrors.ErrStorage, err)
	}
	return nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.scanAccount(r.db.QueryRow(ctx, getAccountByEmailSQL, email))
}

func (r *AccountRepository) GetByID(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	return r.scanAccount(r.db.QueryRow(ctx, getAccountByIDSQL, id.UUID))
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id domain.AccountID, hash, salt string) error {
	tag, err := r.db.Exec(ctx, updateAccountPasswordSQL, hash, salt, id.UUID)
	if err != nil {
		return fmt.Errorf("%w: update password: %v", domerrors.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return domerrors.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID.UUID, &a.Email, &a.PasswordHash, &a.PasswordSalt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get account: %v", domerrors.ErrStorage, err)
	}
	return &a, nil
}

var _ ports.AccountStore = (*AccountRepository)(nil)
