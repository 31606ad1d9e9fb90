package webhook

import (
	"context"

	"github.com/credoauth/credo/internal/application/ports"
)

// DiscardEmitter swallows audit events. Used when no webhook endpoint is
// configured; the zerolog audit line remains the only sink.
type DiscardEmitter struct{}

func NewDiscardEmitter() *DiscardEmitter { return &DiscardEmitter{} }

func (e *DiscardEmitter) Emit(context.Context, ports.AuditEvent) error { return nil }

var _ ports.WebhookEmitter = (*DiscardEmitter)(nil)
