package ports

import "context"

// AuditEvent is a single audit event for logging or webhooks.
type AuditEvent struct {
	Event     string // event type: account.register, account.login, ...
	AccountID string
	IP        string
	Success   bool
	Reason    string // internal discriminant; never echoed to clients
}

// WebhookEmitter sends audit events to an external endpoint.
type WebhookEmitter interface {
	Emit(ctx context.Context, event AuditEvent) error
}
