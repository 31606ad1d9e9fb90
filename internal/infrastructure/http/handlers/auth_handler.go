package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/credoauth/credo/internal/application/authflow"
	"github.com/credoauth/credo/internal/application/ports"
	"github.com/credoauth/credo/internal/domain"
	domerrors "github.com/credoauth/credo/internal/domain/errors"
	"github.com/credoauth/credo/internal/infrastructure/http/middleware"
)

// AuthHandler serves the five credential-workflow endpoints. Within Login,
// Forgot, and Reset every security failure is answered with one
// byte-identical body per operation; only registration reveals existence.
type AuthHandler struct {
	register *authflow.Register
	login    *authflow.Login
	refresh  *authflow.Refresh
	forgot   *authflow.Forgot
	reset    *authflow.Reset
	emitter  ports.WebhookEmitter
	validate *validator.Validate
	log      zerolog.Logger
}

func NewAuthHandler(register *authflow.Register, login *authflow.Login, refresh *authflow.Refresh, forgot *authflow.Forgot, reset *authflow.Reset, emitter ports.WebhookEmitter, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		register: register,
		login:    login,
		refresh:  refresh,
		forgot:   forgot,
		reset:    reset,
		emitter:  emitter,
		validate: validator.New(),
		log:      log,
	}
}

func accountSummary(a *domain.Account) map[string]interface{} {
	return map[string]interface{}{
		"id":         a.ID.String(),
		"email":      a.Email,
		"created_at": a.CreatedAt,
	}
}

func credentialBody(a *domain.Account, c authflow.Credential) map[string]interface{} {
	return map[string]interface{}{
		"access_token": c.Token,
		"expires_in":   c.ExpiresIn,
		"account":      accountSummary(a),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,min=8,max=128"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid email or password")
		return
	}
	email := SanitizeEmail(body.Email)
	password := SanitizePassword(body.Password)
	if email == "" || password == "" {
		writeErr(w, http.StatusBadRequest, "invalid email or password length")
		return
	}
	result, err := h.register.Execute(r.Context(), authflow.RegisterInput{
		Email:    email,
		Password: password,
	})
	if err != nil {
		AuditEmit(h.log, r, h.emitter, "account.register", "", false, err.Error())
		middleware.RecordAuthAttempt("register", false)
		if errors.Is(err, domerrors.ErrAccountExists) {
			writeErr(w, http.StatusBadRequest, "An account already exists for this address")
			return
		}
		h.log.Error().Err(err).Msg("register failed")
		writeErr(w, http.StatusInternalServerError, "Error creating account")
		return
	}
	AuditEmit(h.log, r, h.emitter, "account.register", result.Account.ID.String(), true, "")
	middleware.RecordAuthAttempt("register", true)
	writeJSON(w, http.StatusCreated, credentialBody(result.Account, result.Credential))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,max=128"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid email or password")
		return
	}
	email := SanitizeEmail(body.Email)
	password := SanitizePassword(body.Password)
	if email == "" || password == "" {
		writeErr(w, http.StatusBadRequest, "invalid email or password length")
		return
	}
	result, err := h.login.Execute(r.Context(), authflow.LoginInput{
		Email:    email,
		Password: password,
	})
	if err != nil {
		middleware.RecordAuthAttempt("login", false)
		var denial *authflow.Denial
		if errors.As(err, &denial) {
			AuditEmit(h.log, r, h.emitter, "account.login", "", false, denial.Reason)
			writeErr(w, http.StatusUnauthorized, denial.Public)
			return
		}
		AuditLog(h.log, r, "account.login", "", false, err.Error())
		h.log.Error().Err(err).Msg("login failed")
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	AuditEmit(h.log, r, h.emitter, "account.login", result.Account.ID.String(), true, "")
	middleware.RecordAuthAttempt("login", true)
	writeJSON(w, http.StatusOK, credentialBody(result.Account, result.Credential))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		writeErr(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}
	result, err := h.refresh.Execute(r.Context(), authflow.RefreshInput{AccountID: accountID})
	if err != nil {
		middleware.RecordAuthAttempt("refresh", false)
		var denial *authflow.Denial
		if errors.As(err, &denial) {
			AuditLog(h.log, r, "account.refresh", accountID, false, denial.Reason)
			writeErr(w, http.StatusUnauthorized, denial.Public)
			return
		}
		h.log.Error().Err(err).Msg("refresh failed")
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	AuditLog(h.log, r, "account.refresh", accountID, true, "")
	middleware.RecordAuthAttempt("refresh", true)
	writeJSON(w, http.StatusOK, credentialBody(result.Account, result.Credential))
}

func (h *AuthHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email" validate:"required,email,max=254"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid email")
		return
	}
	email := SanitizeEmail(body.Email)
	if email == "" {
		writeErr(w, http.StatusBadRequest, "invalid email")
		return
	}
	result, err := h.forgot.Execute(r.Context(), authflow.ForgotInput{Email: email})
	if err != nil {
		// Token generate/persist failure is an internal fault, not an
		// enumeration signal, so it may surface as a server error.
		AuditLog(h.log, r, "account.forgot", "", false, err.Error())
		h.log.Error().Err(err).Msg("forgot password failed")
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	AuditLog(h.log, r, "account.forgot", "", true, "")
	middleware.RecordAuthAttempt("forgot", result.TokenIssued)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": authflow.MsgResetRequested,
	})
}

func (h *AuthHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,min=8,max=128"`
		Token    string `json:"token" validate:"required,max=128"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid email, password, or token")
		return
	}
	email := SanitizeEmail(body.Email)
	password := SanitizePassword(body.Password)
	if email == "" || password == "" {
		writeErr(w, http.StatusBadRequest, "invalid email or password length")
		return
	}
	result, err := h.reset.Execute(r.Context(), authflow.ResetInput{
		Email:    email,
		Password: password,
		Token:    body.Token,
	})
	if err != nil {
		middleware.RecordAuthAttempt("reset", false)
		var denial *authflow.Denial
		if errors.As(err, &denial) {
			AuditEmit(h.log, r, h.emitter, "account.reset", "", false, denial.Reason)
			writeErr(w, http.StatusBadRequest, denial.Public)
			return
		}
		AuditLog(h.log, r, "account.reset", "", false, err.Error())
		h.log.Error().Err(err).Msg("reset password failed")
		writeErr(w, http.StatusInternalServerError, "Error updating account")
		return
	}
	AuditEmit(h.log, r, h.emitter, "account.reset", result.Account.ID.String(), true, "")
	middleware.RecordAuthAttempt("reset", true)
	writeJSON(w, http.StatusOK, credentialBody(result.Account, result.Credential))
}
