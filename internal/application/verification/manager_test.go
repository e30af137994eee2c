package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-notify-api/internal/domain"
	"github.com/go-notify-api/internal/infrastructure/memory"
	"github.com/go-notify-api/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockTokenStore struct{ mock.Mock }

func (m *mockTokenStore) FindOneByOwner(ctx context.Context, contactID string) (*domain.VerificationToken, error) {
	args := m.Called(ctx, contactID)
	if t, _ := args.Get(0).(*domain.VerificationToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokenStore) FindByID(ctx context.Context, tokenID string) (*domain.VerificationToken, error) {
	args := m.Called(ctx, tokenID)
	if t, _ := args.Get(0).(*domain.VerificationToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokenStore) Delete(ctx context.Context, t *domain.VerificationToken) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockTokenStore) Flush(ctx context.Context, contactID string) error {
	return m.Called(ctx, contactID).Error(0)
}
func (m *mockTokenStore) Save(ctx context.Context, t *domain.VerificationToken) (*domain.VerificationToken, error) {
	args := m.Called(ctx, t)
	if saved, _ := args.Get(0).(*domain.VerificationToken); saved != nil {
		return saved, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTokenStore) methods() []string {
	var out []string
	for _, c := range m.Calls {
		out = append(out, c.Method)
	}
	return out
}

// --- helpers ---

var fixedNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func newTestManager(store TokenStore) *Manager {
	m := NewManager(store, metrics.New())
	m.now = func() time.Time { return fixedNow }
	return m
}

func contact(id string) *domain.UserContactDetails {
	return &domain.UserContactDetails{ReferenceDataUserID: id, AllowNotify: true}
}

// --- IssueToken ---

func TestIssueToken_NoExistingToken(t *testing.T) {
	store := &mockTokenStore{}
	store.On("FindOneByOwner", mock.Anything, "c1").Return(nil, domain.ErrNotFound)
	want := &domain.VerificationToken{
		ContactDetailsID: "c1",
		EmailAddress:     "a@b.com",
		ExpiresAt:        fixedNow.Add(12 * time.Hour).Unix(),
	}
	saved := *want
	saved.TokenID = "t1"
	store.On("Save", mock.Anything, want).Return(&saved, nil)

	mgr := newTestManager(store)
	tok, err := mgr.IssueToken(context.Background(), contact("c1"), "a@b.com")

	require.NoError(t, err)
	assert.Equal(t, "t1", tok.TokenID)
	assert.Equal(t, []string{"FindOneByOwner", "Save"}, store.methods())
	assert.Equal(t, 1.0, testutil.ToFloat64(mgr.metrics.TokensIssued))
}

func TestIssueToken_DeletesAndFlushesBeforeSave(t *testing.T) {
	store := &mockTokenStore{}
	old := &domain.VerificationToken{TokenID: "old", ContactDetailsID: "c1", EmailAddress: "x@y.com"}
	store.On("FindOneByOwner", mock.Anything, "c1").Return(old, nil)
	store.On("Delete", mock.Anything, old).Return(nil)
	store.On("Flush", mock.Anything, "c1").Return(nil)
	store.On("Save", mock.Anything, mock.Anything).Return(&domain.VerificationToken{TokenID: "new"}, nil)

	_, err := newTestManager(store).IssueToken(context.Background(), contact("c1"), "a@b.com")

	require.NoError(t, err)
	assert.Equal(t, []string{"FindOneByOwner", "Delete", "Flush", "Save"}, store.methods())
}

func TestIssueToken_LookupFailure(t *testing.T) {
	store := &mockTokenStore{}
	store.On("FindOneByOwner", mock.Anything, "c1").Return(nil, domain.ErrStorage)

	_, err := newTestManager(store).IssueToken(context.Background(), contact("c1"), "a@b.com")

	assert.True(t, errors.Is(err, domain.ErrStorage))
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestIssueToken_DeleteFailureStopsBeforeFlush(t *testing.T) {
	store := &mockTokenStore{}
	old := &domain.VerificationToken{TokenID: "old", ContactDetailsID: "c1"}
	store.On("FindOneByOwner", mock.Anything, "c1").Return(old, nil)
	store.On("Delete", mock.Anything, old).Return(domain.ErrStorage)

	_, err := newTestManager(store).IssueToken(context.Background(), contact("c1"), "a@b.com")

	assert.True(t, errors.Is(err, domain.ErrStorage))
	assert.Equal(t, []string{"FindOneByOwner", "Delete"}, store.methods())
}

func TestIssueToken_FlushFailureStopsBeforeSave(t *testing.T) {
	store := &mockTokenStore{}
	old := &domain.VerificationToken{TokenID: "old", ContactDetailsID: "c1"}
	store.On("FindOneByOwner", mock.Anything, "c1").Return(old, nil)
	store.On("Delete", mock.Anything, old).Return(nil)
	store.On("Flush", mock.Anything, "c1").Return(domain.ErrStorage)

	_, err := newTestManager(store).IssueToken(context.Background(), contact("c1"), "a@b.com")

	assert.True(t, errors.Is(err, domain.ErrStorage))
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestIssueToken_SaveConflictPropagates(t *testing.T) {
	store := &mockTokenStore{}
	store.On("FindOneByOwner", mock.Anything, "c1").Return(nil, domain.ErrNotFound)
	store.On("Save", mock.Anything, mock.Anything).Return(nil, domain.ErrConflict)

	_, err := newTestManager(store).IssueToken(context.Background(), contact("c1"), "a@b.com")

	assert.True(t, errors.Is(err, domain.ErrConflict))
}

// --- against the in-memory store ---

func TestIssueToken_TwiceLeavesOnlyLatest(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	mgr := newTestManager(store)

	first, err := mgr.IssueToken(ctx, contact("c1"), "a@b.com")
	require.NoError(t, err)
	second, err := mgr.IssueToken(ctx, contact("c1"), "c@d.com")
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())
	assert.NotEqual(t, first.TokenID, second.TokenID)
	assert.Equal(t, fixedNow.Add(12*time.Hour).Unix(), second.ExpiresAt)

	live, err := store.FindOneByOwner(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, second.TokenID, live.TokenID)
	assert.Equal(t, "c@d.com", live.EmailAddress)
	_, err = store.FindByID(ctx, first.TokenID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestIssueToken_ConcurrentRequestsNeverLeaveTwoOrZero(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	mgr := newTestManager(store)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := mgr.IssueToken(ctx, contact("c1"), "a@b.com"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else {
				assert.True(t, errors.Is(err, domain.ErrConflict), "unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, successes, 1)
	assert.Equal(t, 1, store.Len())
}
