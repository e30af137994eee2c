package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-notify-api/internal/domain"
	"github.com/go-notify-api/internal/metrics"
)

type contactStore interface {
	Get(ctx context.Context, userID string) (*domain.UserContactDetails, error)
}

// Sender delivers ad-hoc messages to a user over the requested channels.
type Sender struct {
	contacts  contactStore
	handlers  Handlers
	scheduler jobScheduler
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type SenderDeps struct {
	Contacts  contactStore
	Handlers  Handlers
	Scheduler jobScheduler
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

func NewSender(deps SenderDeps) *Sender {
	s := &Sender{
		contacts:  deps.Contacts,
		handlers:  deps.Handlers,
		scheduler: deps.Scheduler,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	return s
}

type delivery struct {
	channel domain.NotificationChannel
	handler ChannelHandler
	msg     domain.Message
}

// Send validates every channel up front, then schedules one handoff per
// channel that has a usable address. It does not wait for delivery.
func (s *Sender) Send(ctx context.Context, req domain.SendNotificationRequest) error {
	if len(req.Messages) == 0 {
		return fmt.Errorf("no messages to send: %w", domain.ErrBadRequest)
	}
	channels := make([]domain.NotificationChannel, 0, len(req.Messages))
	for ch := range req.Messages {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })

	deliveries := make([]delivery, 0, len(channels))
	for _, ch := range channels {
		dest := Route(ch)
		if dest == "" {
			return fmt.Errorf("unsupported channel %q: %w", ch, domain.ErrBadRequest)
		}
		h, ok := s.handlers[dest]
		if !ok || h == nil {
			return fmt.Errorf("channel %s is not configured: %w", ch, domain.ErrBadRequest)
		}
		deliveries = append(deliveries, delivery{channel: ch, handler: h, msg: req.Messages[ch]})
	}

	contact, err := s.contacts.Get(ctx, req.UserID)
	if err != nil {
		return err
	}
	if !contact.AllowNotify {
		s.logger.Info("user has notifications disabled", "user_id", req.UserID)
		return nil
	}

	for _, d := range deliveries {
		to := address(contact, d.channel)
		if to == "" {
			s.logger.Warn("no usable address for channel", "user_id", req.UserID, "channel", d.channel)
			s.metrics.Handoffs.WithLabelValues(string(d.channel), metrics.OutcomeSkipped).Inc()
			continue
		}
		d := d
		s.scheduler.Submit(Job{
			Name: "send_" + strings.ToLower(string(d.channel)),
			Run: func(ctx context.Context) error {
				if err := d.handler.Handle(ctx, to, d.msg); err != nil {
					s.metrics.Handoffs.WithLabelValues(string(d.channel), metrics.OutcomeFailure).Inc()
					return fmt.Errorf("send %s notification: %w", d.channel, err)
				}
				s.metrics.Handoffs.WithLabelValues(string(d.channel), metrics.OutcomeSuccess).Inc()
				return nil
			},
		})
	}
	return nil
}

// address returns the destination address of contact on ch. Email must be verified.
func address(contact *domain.UserContactDetails, ch domain.NotificationChannel) string {
	switch ch {
	case domain.ChannelEmail:
		return contact.VerifiedEmail()
	case domain.ChannelSMS:
		if contact.PhoneNumber != nil {
			return *contact.PhoneNumber
		}
	}
	return ""
}
