package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/credoauth/credo/internal/application/ports"
)

// AuditLog logs auth events with the internal reason. The reason field is
// for operators only and is disjoint from anything written to the response.
func AuditLog(log zerolog.Logger, r *http.Request, event, accountID string, success bool, reason string) {
	ev := log.Info()
	if !success {
		ev = log.Warn()
	}
	ev.
		Str("event", event).
		Str("account_id", accountID).
		Str("ip", getClientIP(r)).
		Str("request_id", middleware.GetReqID(r.Context())).
		Bool("success", success)
	if reason != "" {
		ev.Str("reason", reason)
	}
	ev.Msg("auth_audit")
}

// AuditEmit logs the event and, if emitter is non-nil, sends it to the
// webhook endpoint.
func AuditEmit(log zerolog.Logger, r *http.Request, emitter ports.WebhookEmitter, event, accountID string, success bool, reason string) {
	AuditLog(log, r, event, accountID, success, reason)
	if emitter != nil {
		_ = emitter.Emit(r.Context(), ports.AuditEvent{
			Event:     event,
			AccountID: accountID,
			IP:        getClientIP(r),
			Success:   success,
			Reason:    reason,
		})
	}
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return r.RemoteAddr
}
