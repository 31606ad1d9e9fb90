package authflow

import (
	"context"

	"github.com/credoauth/credo/internal/application/directory"
	"github.com/credoauth/credo/internal/application/ports"
	"github.com/credoauth/credo/internal/domain"
)

// RefreshInput carries the account id the upstream authentication gate
// already validated. The use case itself never sees the inbound token.
type RefreshInput struct {
	AccountID string
}

type RefreshResult struct {
	Account    *domain.Account
	Credential Credential
}

// Refresh exchanges a still-valid session for a fresh credential. Stateless
// beyond re-fetching the account to return alongside the token.
type Refresh struct {
	dir    *directory.Directory
	issuer ports.TokenIssuer
}

func NewRefresh(dir *directory.Directory, issuer ports.TokenIssuer) *Refresh {
	return &Refresh{dir: dir, issuer: issuer}
}

func (uc *Refresh) Execute(ctx context.Context, input RefreshInput) (*RefreshResult, error) {
	id, err := domain.ParseAccountID(input.AccountID)
	if err != nil {
		return nil, deny("unparseable account id from gate", "Unauthenticated")
	}
	account, err := uc.dir.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		// The token outlived the account. Indistinguishable from any other
		// unauthenticated request.
		return nil, deny("account missing for valid session", "Unauthenticated")
	}
	token, expiresIn, err := uc.issuer.Issue(account.ID.String())
	if err != nil {
		return nil, err
	}
	return &RefreshResult{
		Account:    account,
		Credential: Credential{Token: token, ExpiresIn: expiresIn},
	}, nil
}
