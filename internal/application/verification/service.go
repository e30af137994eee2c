package verification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-notify-api/internal/domain"
	"golang.org/x/text/language"
)

type Service interface {
	RequestVerification(ctx context.Context, contactID, email string, locale language.Tag) error
	ResendVerification(ctx context.Context, contactID string, locale language.Tag) error
	GetPendingVerification(ctx context.Context, contactID string) (*domain.VerificationToken, error)
	ConfirmVerification(ctx context.Context, contactID, tokenID string) error
}

type contactStore interface {
	Get(ctx context.Context, contactID string) (*domain.UserContactDetails, error)
	MarkEmailVerified(ctx context.Context, contactID, email string) error
}

type notifier interface {
	SendNotification(contact *domain.UserContactDetails, email string, locale language.Tag)
}

type service struct {
	tokens   TokenStore
	contacts contactStore
	notifier notifier
	logger   *slog.Logger
	now      func() time.Time
}

type ServiceDeps struct {
	Tokens   TokenStore
	Contacts contactStore
	Notifier notifier
	Logger   *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		tokens:   deps.Tokens,
		contacts: deps.Contacts,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		now:      time.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *service) RequestVerification(ctx context.Context, contactID, email string, locale language.Tag) error {
	contact, err := s.contacts.Get(ctx, contactID)
	if err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if strings.EqualFold(contact.VerifiedEmail(), email) {
		return fmt.Errorf("email address is already verified: %w", domain.ErrBadRequest)
	}
	s.notifier.SendNotification(contact, email, locale)
	return nil
}

func (s *service) ResendVerification(ctx context.Context, contactID string, locale language.Tag) error {
	pending, err := s.GetPendingVerification(ctx, contactID)
	if err != nil {
		return err
	}
	contact, err := s.contacts.Get(ctx, contactID)
	if err != nil {
		return err
	}
	s.notifier.SendNotification(contact, pending.EmailAddress, locale)
	return nil
}

// GetPendingVerification treats an expired token as absent.
func (s *service) GetPendingVerification(ctx context.Context, contactID string) (*domain.VerificationToken, error) {
	t, err := s.tokens.FindOneByOwner(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if t.Expired(s.now()) {
		return nil, fmt.Errorf("no pending verification: %w", domain.ErrNotFound)
	}
	return t, nil
}

func (s *service) ConfirmVerification(ctx context.Context, contactID, tokenID string) error {
	t, err := s.tokens.FindByID(ctx, tokenID)
	if err != nil {
		return err
	}
	if t.ContactDetailsID != contactID {
		return fmt.Errorf("token does not belong to contact details: %w", domain.ErrBadRequest)
	}
	if t.Expired(s.now()) {
		return fmt.Errorf("verification token expired: %w", domain.ErrBadRequest)
	}
	if err := s.contacts.MarkEmailVerified(ctx, contactID, t.EmailAddress); err != nil {
		return err
	}
	if err := s.tokens.Delete(ctx, t); err != nil {
		s.logger.Warn("failed to delete used verification token", "contact_id", contactID, "err", err)
		return nil
	}
	if err := s.tokens.Flush(ctx, contactID); err != nil {
		s.logger.Warn("failed to flush used verification token delete", "contact_id", contactID, "err", err)
	}
	return nil
}
