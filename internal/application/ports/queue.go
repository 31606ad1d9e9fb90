package ports

import "context"

// MailEnqueuer hands reset emails to the delivery system. Fire-and-forget
// from the workflow's perspective: enqueue failures must not change the
// ambiguous forgot-password response.
type MailEnqueuer interface {
	EnqueueSendPasswordReset(ctx context.Context, email, resetURL string) error
}
