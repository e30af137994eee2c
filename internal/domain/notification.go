package domain

import "strings"

// NotificationChannel is a logical delivery medium.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "EMAIL"
	ChannelSMS   NotificationChannel = "SMS"
)

// ParseChannel converts a case-insensitive name into a NotificationChannel.
// Unknown names are returned as-is so routing can reject them.
func ParseChannel(s string) NotificationChannel {
	return NotificationChannel(strings.ToUpper(strings.TrimSpace(s)))
}

// Message is the localized content handed to a channel handler.
type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body" validate:"required"`
	HTML    bool   `json:"html"`
}

// SendNotificationRequest asks for a message to be delivered to a user over one or more channels.
type SendNotificationRequest struct {
	UserID   string                          `json:"user_id" validate:"required"`
	Messages map[NotificationChannel]Message `json:"messages" validate:"required,min=1,dive"`
}
