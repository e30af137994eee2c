package notification

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-notify-api/internal/domain"
	"github.com/stretchr/testify/mock"
	"golang.org/x/text/language"
)

// --- mocks ---

type mockTokenIssuer struct{ mock.Mock }

func (m *mockTokenIssuer) IssueToken(ctx context.Context, c *domain.UserContactDetails, email string) (*domain.VerificationToken, error) {
	args := m.Called(ctx, c, email)
	if t, _ := args.Get(0).(*domain.VerificationToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockDirectory struct{ mock.Mock }

func (m *mockDirectory) FindOne(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockHandler struct{ mock.Mock }

func (m *mockHandler) Handle(ctx context.Context, to string, msg domain.Message) error {
	return m.Called(ctx, to, msg).Error(0)
}

type mockContactStore struct{ mock.Mock }

func (m *mockContactStore) Get(ctx context.Context, userID string) (*domain.UserContactDetails, error) {
	args := m.Called(ctx, userID)
	if c, _ := args.Get(0).(*domain.UserContactDetails); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- stubs ---

// stubCatalog renders "key:arg0|arg1|..." for any key.
type stubCatalog struct{}

func (stubCatalog) GetMessage(key string, args []string, _ language.Tag) (string, error) {
	return key + ":" + strings.Join(args, "|"), nil
}

// capturingScheduler holds jobs until the test runs them.
type capturingScheduler struct {
	mu   sync.Mutex
	jobs []Job
}

func (s *capturingScheduler) Submit(job Job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return true
}

func (s *capturingScheduler) runAll(ctx context.Context) []error {
	s.mu.Lock()
	jobs := s.jobs
	s.jobs = nil
	s.mu.Unlock()
	var errs []error
	for _, j := range jobs {
		errs = append(errs, j.Run(ctx))
	}
	return errs
}

// recordingHandler keeps every log record for assertions.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }
