package notification

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"

	"github.com/go-notify-api/internal/domain"
	"github.com/go-notify-api/internal/metrics"
	"golang.org/x/text/language"
)

const emailVerificationJob = "email_verification"

type tokenIssuer interface {
	IssueToken(ctx context.Context, contact *domain.UserContactDetails, email string) (*domain.VerificationToken, error)
}

type userDirectory interface {
	FindOne(ctx context.Context, userID string) (*domain.User, error)
}

type jobScheduler interface {
	Submit(job Job) bool
}

// EmailVerificationNotifier issues a verification token for a candidate
// address and emails the confirmation link, off the caller's goroutine.
type EmailVerificationNotifier struct {
	tokens    tokenIssuer
	directory userDirectory
	composer  *Composer
	email     ChannelHandler
	scheduler jobScheduler
	baseURL   string
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type NotifierDeps struct {
	Tokens    tokenIssuer
	Directory userDirectory
	Composer  *Composer
	Email     ChannelHandler
	Scheduler jobScheduler
	BaseURL   string
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

func NewEmailVerificationNotifier(deps NotifierDeps) *EmailVerificationNotifier {
	n := &EmailVerificationNotifier{
		tokens:    deps.Tokens,
		directory: deps.Directory,
		composer:  deps.Composer,
		email:     deps.Email,
		scheduler: deps.Scheduler,
		baseURL:   deps.BaseURL,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	if n.metrics == nil {
		n.metrics = metrics.New()
	}
	return n
}

// SendNotification schedules the verification of email for contact and
// returns immediately. Outcomes are only visible in logs and metrics.
func (n *EmailVerificationNotifier) SendNotification(contact *domain.UserContactDetails, email string, locale language.Tag) {
	c := *contact
	n.scheduler.Submit(Job{
		Name: emailVerificationJob,
		Run: func(ctx context.Context) error {
			return n.Notify(ctx, &c, email, locale)
		},
	})
}

// Notify runs the verification flow synchronously: replace the token, look up
// the recipient, compose the message and hand it to the email channel.
func (n *EmailVerificationNotifier) Notify(ctx context.Context, contact *domain.UserContactDetails, email string, locale language.Tag) error {
	token, err := n.tokens.IssueToken(ctx, contact, email)
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}
	return n.sendEmail(ctx, contact, email, token, locale)
}

func (n *EmailVerificationNotifier) sendEmail(ctx context.Context, contact *domain.UserContactDetails, email string, token *domain.VerificationToken, locale language.Tag) error {
	user, err := n.directory.FindOne(ctx, contact.ReferenceDataUserID)
	if errors.Is(err, domain.ErrNotFound) {
		// No send and no error until unknown recipients are reported upstream.
		n.logger.Warn("can't send notification for user", "user_id", contact.ReferenceDataUserID)
		n.metrics.RecipientsNotFound.Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up recipient %s: %w", contact.ReferenceDataUserID, err)
	}

	// The body is HTML; directory names and the link are plain text.
	args := []string{
		html.EscapeString(user.FirstName),
		html.EscapeString(user.LastName),
		html.EscapeString(VerificationLink(n.baseURL, contact.ID(), token.TokenID)),
	}
	msg, err := n.composer.Compose(VerificationTemplates, args, locale)
	if err != nil {
		return err
	}

	if err := n.email.Handle(ctx, email, msg); err != nil {
		n.metrics.Handoffs.WithLabelValues(string(domain.ChannelEmail), metrics.OutcomeFailure).Inc()
		return fmt.Errorf("send verification email: %w", err)
	}
	n.metrics.Handoffs.WithLabelValues(string(domain.ChannelEmail), metrics.OutcomeSuccess).Inc()
	return nil
}
