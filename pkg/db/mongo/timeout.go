package mongo

import (
	"context"
	"time"
)

// WithTimeout bounds ctx by timeout unless it already carries an earlier
// deadline. The driver finds a transaction's session through ctx.Value, so a
// bounded SessionContext still joins its transaction.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}
