// Package memory holds in-process stores used for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-notify-api/internal/domain"
	"github.com/go-notify-api/internal/pkg/id"
)

// TokenStore keeps verification tokens in memory with the same contract as
// the DynamoDB repo: one token per contact record, enforced on Save.
// Deletes are pending until Flush, so a Save that follows an unflushed
// Delete of the same owner fails with ErrConflict.
type TokenStore struct {
	mu      sync.Mutex
	byOwner map[string]domain.VerificationToken
	pending map[string]string // contact_details_id -> deleted token_id
}

func NewTokenStore() *TokenStore {
	return &TokenStore{
		byOwner: make(map[string]domain.VerificationToken),
		pending: make(map[string]string),
	}
}

// FindOneByOwner hides tokens whose delete is pending.
func (s *TokenStore) FindOneByOwner(_ context.Context, contactID string) (*domain.VerificationToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byOwner[contactID]
	if !ok || s.pending[contactID] == t.TokenID {
		return nil, fmt.Errorf("verification token not found: %w", domain.ErrNotFound)
	}
	return &t, nil
}

func (s *TokenStore) FindByID(_ context.Context, tokenID string) (*domain.VerificationToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for owner, t := range s.byOwner {
		if t.TokenID == tokenID && s.pending[owner] != tokenID {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("verification token not found: %w", domain.ErrNotFound)
}

func (s *TokenStore) Delete(_ context.Context, t *domain.VerificationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.byOwner[t.ContactDetailsID]; ok && cur.TokenID == t.TokenID {
		s.pending[t.ContactDetailsID] = t.TokenID
	}
	return nil
}

// Flush applies the pending delete of contactID, if any.
func (s *TokenStore) Flush(_ context.Context, contactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tokenID, ok := s.pending[contactID]
	if !ok {
		return nil
	}
	if cur, ok := s.byOwner[contactID]; ok && cur.TokenID == tokenID {
		delete(s.byOwner, contactID)
	}
	delete(s.pending, contactID)
	return nil
}

// Save assigns an identity when the token has none.
func (s *TokenStore) Save(_ context.Context, t *domain.VerificationToken) (*domain.VerificationToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byOwner[t.ContactDetailsID]; ok {
		return nil, fmt.Errorf("token for contact %s already exists: %w", t.ContactDetailsID, domain.ErrConflict)
	}
	saved := *t
	if saved.TokenID == "" {
		saved.TokenID = id.New()
	}
	s.byOwner[saved.ContactDetailsID] = saved
	return &saved, nil
}

// Len returns the number of stored tokens, pending deletes included.
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byOwner)
}
