package authflow

import (
	"context"
	"errors"

	"github.com/credoauth/credo/internal/application/directory"
	"github.com/credoauth/credo/internal/application/ports"
	"github.com/credoauth/credo/internal/domain"
	domerrors "github.com/credoauth/credo/internal/domain/errors"
)

type RegisterInput struct {
	Email    string
	Password string
}

type RegisterResult struct {
	Account    *domain.Account
	Credential Credential
}

// Credential is a freshly issued session token plus its lifetime in seconds.
type Credential struct {
	Token     string
	ExpiresIn int64
}

// Register creates an account and signs the caller in. Registration is the
// one boundary that intentionally reveals whether an email is taken.
type Register struct {
	dir    *directory.Directory
	hasher ports.PasswordHasher
	issuer ports.TokenIssuer
}

func NewRegister(dir *directory.Directory, hasher ports.PasswordHasher, issuer ports.TokenIssuer) *Register {
	return &Register{dir: dir, hasher: hasher, issuer: issuer}
}

func (uc *Register) Execute(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	existing, err := uc.dir.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domerrors.ErrAccountExists
	}
	hash, salt, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	account, err := uc.dir.Create(ctx, input.Email, hash, salt)
	if err != nil {
		// Lost the insert race against a concurrent registration for the
		// same normalized email.
		if errors.Is(err, domerrors.ErrDuplicateEmail) {
			return nil, domerrors.ErrAccountExists
		}
		return nil, err
	}
	token, expiresIn, err := uc.issuer.Issue(account.ID.String())
	if err != nil {
		return nil, err
	}
	return &RegisterResult{
		Account:    account,
		Credential: Credential{Token: token, ExpiresIn: expiresIn},
	}, nil
}
