package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountID is a value object for account identity.
type AccountID struct{ uuid.UUID }

// NewAccountID creates an AccountID from uuid.
func NewAccountID(id uuid.UUID) AccountID { return AccountID{UUID: id} }

// ParseAccountID parses the canonical string form.
func ParseAccountID(s string) (AccountID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID{UUID: id}, nil
}

// String returns the canonical string form.
func (a AccountID) String() string { return a.UUID.String() }

// Account is a registered identity. Email is unique per normalized form.
// PasswordHash and PasswordSalt are replaced together on every password
// change; the id and email never change.
type Account struct {
	ID           AccountID
	Email        string
	PasswordHash string
	PasswordSalt string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
