package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"gopkg.in/gomail.v2"

	"github.com/supertrooper/backend/internal/config"
	"github.com/supertrooper/backend/internal/logging"
)

// Sender is satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier sends plain mails through SMTP behind a circuit breaker.
type EmailNotifier struct {
	from    string
	sender  Sender
	breaker *gobreaker.CircuitBreaker
}

func NewEmailNotifier(cfg config.SMTPConfig) *EmailNotifier {
	return NewEmailNotifierWithSender(cfg.From, gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password))
}

func NewEmailNotifierWithSender(from string, sender Sender) *EmailNotifier {
	return &EmailNotifier{
		from:   from,
		sender: sender,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "smtp",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Log.Infof("circuit breaker %s changed from %s to %s", name, from, to)
			},
		}),
	}
}

func (n *EmailNotifier) NotifyRoleAssigned(_ context.Context, e RoleAssignedEvent) error {
	body := fmt.Sprintf("You were added to project %q as %s by %s.", e.ProjectName, e.Role, e.OwnerEmail)
	return n.send(e.MemberEmail, "New project membership", body)
}

func (n *EmailNotifier) NotifyTaskAssigned(_ context.Context, e TaskAssignedEvent) error {
	body := fmt.Sprintf("Task %q in %s is assigned to you. Due %s.", e.Title, e.ProjectName, e.DueDate)
	return n.send(e.AssigneeEmail, "New task assigned", body)
}

func (n *EmailNotifier) NotifyFeedbackStatus(_ context.Context, e FeedbackStatusEvent) error {
	body := fmt.Sprintf("Your feedback #%d is now %s.", e.FeedbackID, e.Status)
	return n.send(e.AuthorEmail, "Feedback status updated", body)
}

func (n *EmailNotifier) send(to, subject, body string) error {
	if to == "" {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	_, err := n.breaker.Execute(func() (interface{}, error) {
		return nil, n.sender.DialAndSend(m)
	})
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

var _ Notifier = (*EmailNotifier)(nil)
