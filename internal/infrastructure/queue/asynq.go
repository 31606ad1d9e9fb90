package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/credoauth/credo/internal/application/ports"
)

const (
	TypeSendPasswordReset = "email:password_reset"
)

// MailEnqueuer implements ports.MailEnqueuer on asynq. Delivery itself
// happens in the worker; the workflow only ever enqueues.
type MailEnqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

func NewAsynqEnqueuer(redisOpt asynq.RedisClientOpt, log zerolog.Logger) *MailEnqueuer {
	return &MailEnqueuer{client: asynq.NewClient(redisOpt), log: log}
}

func (q *MailEnqueuer) Close() error {
	return q.client.Close()
}

func (q *MailEnqueuer) EnqueueSendPasswordReset(ctx context.Context, email, resetURL string) error {
	payload, _ := json.Marshal(map[string]string{
		"email":     email,
		"reset_url": resetURL,
	})
	task := asynq.NewTask(TypeSendPasswordReset, payload)
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		q.log.Warn().Err(err).Str("email", email).Msg("enqueue password reset email failed")
		return err
	}
	return nil
}

var _ ports.MailEnqueuer = (*MailEnqueuer)(nil)
