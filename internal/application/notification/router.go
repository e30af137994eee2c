package notification

import (
	"context"

	"github.com/go-notify-api/internal/domain"
)

// Destinations bound to each notification channel.
const (
	EmailSendNowDestination = "notification.email.send.now"
	SMSSendNowDestination   = "notification.sms.send.now"
)

// Route returns the dispatch destination for ch, or "" when the channel is
// unknown. Callers must not dispatch on "".
func Route(ch domain.NotificationChannel) string {
	switch ch {
	case domain.ChannelEmail:
		return EmailSendNowDestination
	case domain.ChannelSMS:
		return SMSSendNowDestination
	default:
		return ""
	}
}

// ChannelHandler delivers a message to an address on one channel.
type ChannelHandler interface {
	Handle(ctx context.Context, to string, msg domain.Message) error
}

// Handlers maps a destination returned by Route to its handler.
type Handlers map[string]ChannelHandler
