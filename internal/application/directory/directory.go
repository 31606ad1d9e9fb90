package directory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/credoauth/credo/internal/application/ports"
	"github.com/credoauth/credo/internal/domain"
)

// Directory is the thin core atop the external account store. Every email
// that reaches the store first passes through Normalize, so exactly one
// account exists per normalized address. Absence is (nil, nil): the caller
// decides how ambiguous to be about it.
type Directory struct {
	store ports.AccountStore
}

func New(store ports.AccountStore) *Directory {
	return &Directory{store: store}
}

// Normalize trims whitespace and lowercases the address. All comparisons
// and storage use this form.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (d *Directory) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return d.store.GetByEmail(ctx, Normalize(email))
}

func (d *Directory) FindByID(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	return d.store.GetByID(ctx, id)
}

// Create inserts a new account for the normalized email. The unique-email
// race is checked at the storage layer; a lost race surfaces as
// domerrors.ErrDuplicateEmail.
func (d *Directory) Create(ctx context.Context, email, passwordHash, passwordSalt string) (*domain.Account, error) {
	now := time.Now()
	account := &domain.Account{
		ID:           domain.NewAccountID(uuid.New()),
		Email:        Normalize(email),
		PasswordHash: passwordHash,
		PasswordSalt: passwordSalt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := d.store.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// UpdatePassword replaces hash and salt atomically and returns the current
// account. Id and email never change here.
func (d *Directory) UpdatePassword(ctx context.Context, id domain.AccountID, hash, salt string) (*domain.Account, error) {
	if err := d.store.UpdatePassword(ctx, id, hash, salt); err != nil {
		return nil, err
	}
	return d.store.GetByID(ctx, id)
}
