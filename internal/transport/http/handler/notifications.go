package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-notify-api/internal/domain"
	"github.com/go-notify-api/internal/pkg/validate"
)

// NotificationSender schedules a multi-channel notification.
type NotificationSender interface {
	Send(ctx context.Context, req domain.SendNotificationRequest) error
}

// NotificationHandler handles direct notification requests.
type NotificationHandler struct {
	sender NotificationSender
}

func NewNotificationHandler(sender NotificationSender) *NotificationHandler {
	return &NotificationHandler{sender: sender}
}

func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.SendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	// Channel names are case-insensitive on the wire.
	msgs := make(map[domain.NotificationChannel]domain.Message, len(req.Messages))
	for ch, m := range req.Messages {
		key := domain.ParseChannel(string(ch))
		if _, dup := msgs[key]; dup {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("channel %s given more than once", key))
			return
		}
		msgs[key] = m
	}
	req.Messages = msgs

	if err := h.sender.Send(r.Context(), req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "notification scheduled"})
}
