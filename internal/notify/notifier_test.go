package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/supertrooper/backend/internal/worker"
)

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []*gomail.Message
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestEmailNotifierSends(t *testing.T) {
	s := &fakeSender{}
	n := NewEmailNotifierWithSender("noreply@example.com", s)

	err := n.NotifyRoleAssigned(context.Background(), RoleAssignedEvent{
		ProjectName: "Atlas", OwnerEmail: "owner@example.com", MemberEmail: "m@example.com", Role: "MEMBER",
	})
	require.NoError(t, err)
	require.Len(t, s.sent, 1)
	assert.Equal(t, []string{"m@example.com"}, s.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"New project membership"}, s.sent[0].GetHeader("Subject"))
}

func TestEmailNotifierSkipsEmptyRecipient(t *testing.T) {
	s := &fakeSender{}
	n := NewEmailNotifierWithSender("noreply@example.com", s)
	require.NoError(t, n.NotifyFeedbackStatus(context.Background(), FeedbackStatusEvent{FeedbackID: 1, Status: "reviewed"}))
	assert.Empty(t, s.sent)
}

func TestEmailNotifierBreakerOpens(t *testing.T) {
	s := &fakeSender{err: errors.New("connection refused")}
	n := NewEmailNotifierWithSender("noreply@example.com", s)
	e := TaskAssignedEvent{Title: "t", AssigneeEmail: "a@example.com"}

	for i := 0; i < 4; i++ {
		err := n.NotifyTaskAssigned(context.Background(), e)
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
	err := n.NotifyTaskAssigned(context.Background(), e)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func (r *recorder) NotifyRoleAssigned(_ context.Context, e RoleAssignedEvent) error {
	r.add("role:" + e.MemberEmail)
	return nil
}

func (r *recorder) NotifyTaskAssigned(_ context.Context, e TaskAssignedEvent) error {
	r.add("task:" + e.AssigneeEmail)
	return nil
}

func (r *recorder) NotifyFeedbackStatus(_ context.Context, e FeedbackStatusEvent) error {
	r.add("feedback:" + e.Status)
	return errors.New("ignored")
}

func TestAsyncNotifierDelivers(t *testing.T) {
	pool := worker.NewPool(2, 10)
	rec := &recorder{}
	n := NewAsyncNotifier(rec, pool)

	require.NoError(t, n.NotifyRoleAssigned(context.Background(), RoleAssignedEvent{MemberEmail: "a"}))
	require.NoError(t, n.NotifyTaskAssigned(context.Background(), TaskAssignedEvent{AssigneeEmail: "b"}))
	require.NoError(t, n.NotifyFeedbackStatus(context.Background(), FeedbackStatusEvent{Status: "addressed"}))
	pool.Shutdown()

	assert.ElementsMatch(t, []string{"role:a", "task:b", "feedback:addressed"}, rec.events)
}

func TestAsyncNotifierReportsClosedPool(t *testing.T) {
	pool := worker.NewPool(1, 1)
	pool.Shutdown()
	n := NewAsyncNotifier(NoopNotifier{}, pool)
	assert.ErrorIs(t, n.NotifyRoleAssigned(context.Background(), RoleAssignedEvent{}), ErrQueueFull)
}
