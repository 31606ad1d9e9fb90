package authflow

import (
	"context"
	"fmt"

	"github.com/credoauth/credo/internal/application/directory"
	"github.com/credoauth/credo/internal/application/ports"
	"github.com/credoauth/credo/internal/application/resettoken"
)

type ForgotInput struct {
	Email string
}

// ForgotResult carries only the internal outcome; the client response is the
// same ambiguous message either way.
type ForgotResult struct {
	// TokenIssued is internal-only (metrics). It must never influence the
	// response body or status.
	TokenIssued bool
}

// Forgot starts the password-reset process. Unknown emails get the identical
// ambiguous success with no side effect; only a token generate/persist
// failure is allowed to surface, as a server error.
type Forgot struct {
	dir     *directory.Directory
	tokens  *resettoken.Manager
	mail    ports.MailEnqueuer
	baseURL string
}

func NewForgot(dir *directory.Directory, tokens *resettoken.Manager, mail ports.MailEnqueuer, baseURL string) *Forgot {
	return &Forgot{dir: dir, tokens: tokens, mail: mail, baseURL: baseURL}
}

func (uc *Forgot) Execute(ctx context.Context, input ForgotInput) (*ForgotResult, error) {
	account, err := uc.dir.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return &ForgotResult{}, nil
	}
	token, err := uc.tokens.Issue(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	// Fire-and-forget: delivery failure must not change the ambiguous
	// response.
	resetURL := fmt.Sprintf("%s?token=%s", uc.baseURL, token)
	_ = uc.mail.EnqueueSendPasswordReset(ctx, account.Email, resetURL)
	return &ForgotResult{TokenIssued: true}, nil
}
