package authflow

import (
	"context"
	"errors"

	"github.com/credoauth/credo/internal/application/directory"
	"github.com/credoauth/credo/internal/application/ports"
	"github.com/credoauth/credo/internal/application/resettoken"
	"github.com/credoauth/credo/internal/domain"
	domerrors "github.com/credoauth/credo/internal/domain/errors"
)

type ResetInput struct {
	Email    string
	Password string
	Token    string
}

type ResetResult struct {
	Account    *domain.Account
	Credential Credential
}

// Reset redeems a single-use token and replaces the account password with a
// fresh salt. Every mismatch along the way collapses into the same Denial.
// The token is consumed only after the email check passes, and consumption
// is atomic at the store: of two racing redemptions exactly one gets here.
type Reset struct {
	dir    *directory.Directory
	tokens *resettoken.Manager
	hasher ports.PasswordHasher
	issuer ports.TokenIssuer
}

func NewReset(dir *directory.Directory, tokens *resettoken.Manager, hasher ports.PasswordHasher, issuer ports.TokenIssuer) *Reset {
	return &Reset{dir: dir, tokens: tokens, hasher: hasher, issuer: issuer}
}

func (uc *Reset) Execute(ctx context.Context, input ResetInput) (*ResetResult, error) {
	if !resettoken.IsWellFormed(input.Token) {
		return nil, deny("malformed token", MsgInvalidToken)
	}
	accountID, err := uc.tokens.Lookup(ctx, input.Token)
	if err != nil {
		if errors.Is(err, domerrors.ErrTokenNotFound) {
			return nil, deny("token absent, expired, or consumed", MsgInvalidToken)
		}
		return nil, err
	}
	account, err := uc.dir.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, deny("token points at missing account", MsgInvalidToken)
	}
	// Defends against a captured token replayed with a different email.
	if account.Email != directory.Normalize(input.Email) {
		return nil, deny("email mismatch", MsgInvalidToken)
	}
	if _, err := uc.tokens.Consume(ctx, input.Token); err != nil {
		if errors.Is(err, domerrors.ErrTokenNotFound) {
			return nil, deny("lost consume race", MsgInvalidToken)
		}
		return nil, err
	}
	hash, salt, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	account, err = uc.dir.UpdatePassword(ctx, account.ID, hash, salt)
	if err != nil {
		return nil, err
	}
	token, expiresIn, err := uc.issuer.Issue(account.ID.String())
	if err != nil {
		return nil, err
	}
	return &ResetResult{
		Account:    account,
		Credential: Credential{Token: token, ExpiresIn: expiresIn},
	}, nil
}
