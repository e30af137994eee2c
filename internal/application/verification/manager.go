package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-notify-api/internal/domain"
	"github.com/go-notify-api/internal/metrics"
)

// TokenStore persists verification tokens, at most one per contact record.
// Lookups return domain.ErrNotFound when nothing matches; Save fails with
// domain.ErrConflict while another token of the same owner is stored.
type TokenStore interface {
	FindOneByOwner(ctx context.Context, contactID string) (*domain.VerificationToken, error)
	FindByID(ctx context.Context, tokenID string) (*domain.VerificationToken, error)
	Delete(ctx context.Context, t *domain.VerificationToken) error
	// Flush returns once every prior Delete of contactID's token is durable
	// and visible. Deletes of other owners are left alone.
	Flush(ctx context.Context, contactID string) error
	Save(ctx context.Context, t *domain.VerificationToken) (*domain.VerificationToken, error)
}

// Manager keeps a single live verification token per contact record.
type Manager struct {
	store   TokenStore
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewManager(store TokenStore, m *metrics.Metrics) *Manager {
	if m == nil {
		m = metrics.New()
	}
	return &Manager{store: store, metrics: m, now: time.Now}
}

// IssueToken replaces any token of contact with a new one for email that
// expires after domain.TokenValidity. The old token is deleted and flushed
// before the insert so the unique owner key never sees two rows.
func (m *Manager) IssueToken(ctx context.Context, contact *domain.UserContactDetails, email string) (*domain.VerificationToken, error) {
	existing, err := m.store.FindOneByOwner(ctx, contact.ID())
	switch {
	case err == nil:
		if err := m.store.Delete(ctx, existing); err != nil {
			return nil, fmt.Errorf("delete previous verification token: %w", err)
		}
		if err := m.store.Flush(ctx, contact.ID()); err != nil {
			return nil, fmt.Errorf("flush verification token delete: %w", err)
		}
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("find verification token: %w", err)
	}

	token, err := m.store.Save(ctx, &domain.VerificationToken{
		ContactDetailsID: contact.ID(),
		EmailAddress:     email,
		ExpiresAt:        m.now().Add(domain.TokenValidity).Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("save verification token: %w", err)
	}
	m.metrics.TokensIssued.Inc()
	return token, nil
}
