package authflow_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/credoauth/credo/internal/application/authflow"
	"github.com/credoauth/credo/internal/application/directory"
	"github.com/credoauth/credo/internal/application/resettoken"
	domerrors "github.com/credoauth/credo/internal/domain/errors"
	infraauth "github.com/credoauth/credo/internal/infrastructure/auth"
	"github.com/credoauth/credo/internal/infrastructure/security"
)

type env struct {
	accounts *memAccounts
	tokens   *memTokens
	mail     *memMail
	issuer   *infraauth.TokenIssuer

	register *authflow.Register
	login    *authflow.Login
	refresh  *authflow.Refresh
	forgot   *authflow.Forgot
	reset    *authflow.Reset
}

func newEnv(t *testing.T) *env {
	t.Helper()

	hasher, err := security.NewArgon2Hasher(security.Argon2Params{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	require.NoError(t, err)

	issuer, err := infraauth.NewTokenIssuer(
		[]byte("0123456789abcdef0123456789abcdef"), "credo", "credo", time.Hour)
	require.NoError(t, err)

	accounts := newMemAccounts()
	tokens := newMemTokens()
	mail := &memMail{}
	dir := directory.New(accounts)
	manager := resettoken.NewManager(tokens, time.Hour)

	return &env{
		accounts: accounts,
		tokens:   tokens,
		mail:     mail,
		issuer:   issuer,
		register: authflow.NewRegister(dir, hasher, issuer),
		login:    authflow.NewLogin(dir, hasher, issuer),
		refresh:  authflow.NewRefresh(dir, issuer),
		forgot:   authflow.NewForgot(dir, manager, mail, "https://app.example.com/reset"),
		reset:    authflow.NewReset(dir, manager, hasher, issuer),
	}
}

func (e *env) mustRegister(t *testing.T, email, password string) *authflow.RegisterResult {
	t.Helper()
	result, err := e.register.Execute(context.Background(), authflow.RegisterInput{
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return result
}

// lastResetToken extracts the plaintext token from the most recent reset
// email, the only place it ever appears.
func (e *env) lastResetToken(t *testing.T) string {
	t.Helper()
	e.mail.mu.Lock()
	defer e.mail.mu.Unlock()
	require.NotEmpty(t, e.mail.sent)
	u, err := url.Parse(e.mail.sent[len(e.mail.sent)-1].resetURL)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func TestRegister_IssuesUsableCredential(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	result := e.mustRegister(t, "a@x.com", "password-1")
	require.Equal(t, "a@x.com", result.Account.Email)
	require.NotEmpty(t, result.Credential.Token)

	accountID, err := e.issuer.Verify(result.Credential.Token)
	require.NoError(t, err)
	require.Equal(t, result.Account.ID.String(), accountID)
}

func TestRegister_DuplicateNormalizedEmail(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.mustRegister(t, "a@x.com", "password-1")

	for _, variant := range []string{"a@x.com", "A@X.com", "  a@x.com  ", "A@x.COM"} {
		_, err := e.register.Execute(context.Background(), authflow.RegisterInput{
			Email:    variant,
			Password: "password-2",
		})
		require.ErrorIs(t, err, domerrors.ErrAccountExists, "variant %q", variant)
	}
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	registered := e.mustRegister(t, "a@x.com", "password-1")

	result, err := e.login.Execute(context.Background(), authflow.LoginInput{
		Email:    "A@x.com ",
		Password: "password-1",
	})
	require.NoError(t, err)
	require.Equal(t, registered.Account.ID, result.Account.ID)

	accountID, err := e.issuer.Verify(result.Credential.Token)
	require.NoError(t, err)
	require.Equal(t, registered.Account.ID.String(), accountID)
}

func TestLogin_AmbiguousAcrossFailureCauses(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.mustRegister(t, "a@x.com", "password-1")

	_, wrongPw := e.login.Execute(context.Background(), authflow.LoginInput{
		Email:    "a@x.com",
		Password: "wrong",
	})
	_, unknown := e.login.Execute(context.Background(), authflow.LoginInput{
		Email:    "nobody@x.com",
		Password: "password-1",
	})

	var d1, d2 *authflow.Denial
	require.ErrorAs(t, wrongPw, &d1)
	require.ErrorAs(t, unknown, &d2)
	require.Equal(t, authflow.MsgInvalidCredentials, d1.Public)
	// The public message is byte-identical regardless of the internal cause.
	require.Equal(t, d1.Public, d2.Public)
	require.NotEqual(t, d1.Reason, d2.Reason)
}

func TestRefresh_SameAccount(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	registered := e.mustRegister(t, "a@x.com", "password-1")

	result, err := e.refresh.Execute(context.Background(), authflow.RefreshInput{
		AccountID: registered.Account.ID.String(),
	})
	require.NoError(t, err)
	require.Equal(t, registered.Account.ID, result.Account.ID)

	accountID, err := e.issuer.Verify(result.Credential.Token)
	require.NoError(t, err)
	require.Equal(t, registered.Account.ID.String(), accountID)
}

func TestRefresh_AccountVanished(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	_, err := e.refresh.Execute(context.Background(), authflow.RefreshInput{
		AccountID: "11111111-2222-3333-4444-555555555555",
	})
	var denial *authflow.Denial
	require.ErrorAs(t, err, &denial)
}

func TestForgot_AmbiguousButOnlyRegisteredIssuesToken(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.mustRegister(t, "a@x.com", "password-1")

	unknown, err := e.forgot.Execute(context.Background(), authflow.ForgotInput{Email: "nobody@x.com"})
	require.NoError(t, err)
	require.False(t, unknown.TokenIssued)
	require.Equal(t, 0, e.tokens.liveCount())
	require.Equal(t, 0, e.mail.sentCount())

	known, err := e.forgot.Execute(context.Background(), authflow.ForgotInput{Email: "a@x.com"})
	require.NoError(t, err)
	require.True(t, known.TokenIssued)
	require.Equal(t, 1, e.tokens.liveCount())
	require.Equal(t, 1, e.mail.sentCount())
}

func TestForgot_MailFailureKeepsAmbiguousSuccess(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.mustRegister(t, "a@x.com", "password-1")
	e.mail.fail = true

	result, err := e.forgot.Execute(context.Background(), authflow.ForgotInput{Email: "a@x.com"})
	require.NoError(t, err)
	require.True(t, result.TokenIssued)
}

func TestForgot_SecondRequestRetiresFirstToken(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	e.mustRegister(t, "a@x.com", "password-1")

	_, err := e.forgot.Execute(ctx, authflow.ForgotInput{Email: "a@x.com"})
	require.NoError(t, err)
	first := e.lastResetToken(t)

	_, err = e.forgot.Execute(ctx, authflow.ForgotInput{Email: "a@x.com"})
	require.NoError(t, err)
	require.Equal(t, 1, e.tokens.liveCount())

	_, err = e.reset.Execute(ctx, authflow.ResetInput{
		Email:    "a@x.com",
		Password: "new-password",
		Token:    first,
	})
	var denial *authflow.Denial
	require.ErrorAs(t, err, &denial)
	require.Equal(t, authflow.MsgInvalidToken, denial.Public)
}

func TestReset_HappyPathRotatesSaltAndPassword(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	registered := e.mustRegister(t, "a@x.com", "password-1")
	oldSalt := e.accountSalt(t, "a@x.com")

	_, err := e.forgot.Execute(ctx, authflow.ForgotInput{Email: "a@x.com"})
	require.NoError(t, err)
	token := e.lastResetToken(t)

	result, err := e.reset.Execute(ctx, authflow.ResetInput{
		Email:    "a@x.com",
		Password: "password-2",
		Token:    token,
	})
	require.NoError(t, err)
	require.Equal(t, registered.Account.ID, result.Account.ID)
	require.NotEqual(t, oldSalt, e.accountSalt(t, "a@x.com"))

	_, err = e.login.Execute(ctx, authflow.LoginInput{Email: "a@x.com", Password: "password-1"})
	var denial *authflow.Denial
	require.ErrorAs(t, err, &denial)

	_, err = e.login.Execute(ctx, authflow.LoginInput{Email: "a@x.com", Password: "password-2"})
	require.NoError(t, err)
}

func TestReset_SecondRedemptionMatchesNeverIssued(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	e.mustRegister(t, "a@x.com", "password-1")
	_, err := e.forgot.Execute(ctx, authflow.ForgotInput{Email: "a@x.com"})
	require.NoError(t, err)
	token := e.lastResetToken(t)

	_, err = e.reset.Execute(ctx, authflow.ResetInput{
		Email: "a@x.com", Password: "password-2", Token: token,
	})
	require.NoError(t, err)

	_, replay := e.reset.Execute(ctx, authflow.ResetInput{
		Email: "a@x.com", Password: "password-3", Token: token,
	})
	_, never := e.reset.Execute(ctx, authflow.ResetInput{
		Email: "a@x.com", Password: "password-3", Token: strings.Repeat("ab", 32),
	})

	var d1, d2 *authflow.Denial
	require.ErrorAs(t, replay, &d1)
	require.ErrorAs(t, never, &d2)
	require.Equal(t, d1.Public, d2.Public)
}

func TestReset_EmailMismatchDoesNotBurnToken(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	e.mustRegister(t, "a@x.com", "password-1")
	e.mustRegister(t, "b@x.com", "password-1")

	_, err := e.forgot.Execute(ctx, authflow.ForgotInput{Email: "a@x.com"})
	require.NoError(t, err)
	token := e.lastResetToken(t)

	_, err = e.reset.Execute(ctx, authflow.ResetInput{
		Email: "b@x.com", Password: "password-2", Token: token,
	})
	var denial *authflow.Denial
	require.ErrorAs(t, err, &denial)
	require.Equal(t, authflow.MsgInvalidToken, denial.Public)

	// The rightful owner can still redeem; the mismatch attempt consumed
	// nothing.
	_, err = e.reset.Execute(ctx, authflow.ResetInput{
		Email: "a@x.com", Password: "password-2", Token: token,
	})
	require.NoError(t, err)
}

func TestReset_MalformedToken(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.mustRegister(t, "a@x.com", "password-1")
	for _, token := range []string{"", "short", strings.Repeat("Z", 64)} {
		_, err := e.reset.Execute(context.Background(), authflow.ResetInput{
			Email: "a@x.com", Password: "password-2", Token: token,
		})
		var denial *authflow.Denial
		require.ErrorAs(t, err, &denial, "token %q", token)
		require.Equal(t, authflow.MsgInvalidToken, denial.Public)
	}
}

func (e *env) accountSalt(t *testing.T, email string) string {
	t.Helper()
	account, err := e.accounts.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, account)
	return account.PasswordSalt
}
