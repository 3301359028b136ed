package notify

import (
	"context"
	"errors"

	"github.com/supertrooper/backend/internal/logging"
	"github.com/supertrooper/backend/internal/worker"
)

var ErrQueueFull = errors.New("notification queue full")

// Notifier delivers user-facing notifications.
type Notifier interface {
	NotifyRoleAssigned(ctx context.Context, e RoleAssignedEvent) error
	NotifyTaskAssigned(ctx context.Context, e TaskAssignedEvent) error
	NotifyFeedbackStatus(ctx context.Context, e FeedbackStatusEvent) error
}

// NoopNotifier is used when no delivery channel is configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyRoleAssigned(context.Context, RoleAssignedEvent) error     { return nil }
func (NoopNotifier) NotifyTaskAssigned(context.Context, TaskAssignedEvent) error     { return nil }
func (NoopNotifier) NotifyFeedbackStatus(context.Context, FeedbackStatusEvent) error { return nil }

// AsyncNotifier hands deliveries to a worker pool so request handlers never
// wait on the mail server.
type AsyncNotifier struct {
	next Notifier
	pool *worker.Pool
}

func NewAsyncNotifier(next Notifier, pool *worker.Pool) *AsyncNotifier {
	return &AsyncNotifier{next: next, pool: pool}
}

func (n *AsyncNotifier) submit(kind string, fn func(ctx context.Context) error) error {
	ok := n.pool.Submit(func() {
		if err := fn(context.Background()); err != nil {
			logging.Log.WithField("kind", kind).Warnf("notification failed: %v", err)
		}
	})
	if !ok {
		return ErrQueueFull
	}
	return nil
}

func (n *AsyncNotifier) NotifyRoleAssigned(_ context.Context, e RoleAssignedEvent) error {
	return n.submit("role_assigned", func(ctx context.Context) error { return n.next.NotifyRoleAssigned(ctx, e) })
}

func (n *AsyncNotifier) NotifyTaskAssigned(_ context.Context, e TaskAssignedEvent) error {
	return n.submit("task_assigned", func(ctx context.Context) error { return n.next.NotifyTaskAssigned(ctx, e) })
}

func (n *AsyncNotifier) NotifyFeedbackStatus(_ context.Context, e FeedbackStatusEvent) error {
	return n.submit("feedback_status", func(ctx context.Context) error { return n.next.NotifyFeedbackStatus(ctx, e) })
}

var (
	_ Notifier = NoopNotifier{}
	_ Notifier = (*AsyncNotifier)(nil)
)
