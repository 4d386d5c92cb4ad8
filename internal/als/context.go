package als

import "context"

// ContextCancelled performs a non-blocking poll of ctx, used between
// training iterations and hyperparameter-search candidates so the check
// never blocks waiting on ctx.Done().
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
