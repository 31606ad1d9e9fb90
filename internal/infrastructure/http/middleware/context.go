package middleware

import "context"

type contextKey string

const accountContextKey contextKey = "account_id"

// WithAccountID injects the authenticated account id into the context.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountContextKey, accountID)
}

// AccountIDFromContext returns the authenticated account id, or "".
func AccountIDFromContext(ctx context.Context) string {
	v := ctx.Value(accountContextKey)
	if v == nil {
		return ""
	}
	id, _ := v.(string)
	return id
}
