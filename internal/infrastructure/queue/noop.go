package queue

import (
	"context"

	"github.com/credoauth/credo/internal/application/ports"
)

// NoopEnqueuer is used when redis/asynq is not configured.
type NoopEnqueuer struct{}

func NewNoopEnqueuer() *NoopEnqueuer {
	return &NoopEnqueuer{}
}

func (q *NoopEnqueuer) EnqueueSendPasswordReset(ctx context.Context, email, resetURL string) error {
	return nil
}

var _ ports.MailEnqueuer = (*NoopEnqueuer)(nil)
