package authflow

import (
	"context"

	"github.com/credoauth/credo/internal/application/directory"
	"github.com/credoauth/credo/internal/application/ports"
	"github.com/credoauth/credo/internal/domain"
)

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	Account    *domain.Account
	Credential Credential
}

// Login authenticates an email/password pair. Unknown email and wrong
// password produce the same Denial with the same timing profile: when no
// account matches, the hasher still verifies against its dummy target
// instead of short-circuiting.
type Login struct {
	dir    *directory.Directory
	hasher ports.PasswordHasher
	issuer ports.TokenIssuer
}

func NewLogin(dir *directory.Directory, hasher ports.PasswordHasher, issuer ports.TokenIssuer) *Login {
	return &Login{dir: dir, hasher: hasher, issuer: issuer}
}

func (uc *Login) Execute(ctx context.Context, input LoginInput) (*LoginResult, error) {
	account, err := uc.dir.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	hash, salt := uc.hasher.DummyTarget()
	if account != nil {
		hash, salt = account.PasswordHash, account.PasswordSalt
	}
	match, err := uc.hasher.Verify(input.Password, hash, salt)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, deny("unknown email", MsgInvalidCredentials)
	}
	if !match {
		return nil, deny("password mismatch", MsgInvalidCredentials)
	}
	token, expiresIn, err := uc.issuer.Issue(account.ID.String())
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Account:    account,
		Credential: Credential{Token: token, ExpiresIn: expiresIn},
	}, nil
}
