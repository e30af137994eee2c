package notification

import (
	"fmt"

	"github.com/go-notify-api/internal/domain"
	"github.com/go-notify-api/internal/i18n"
	"golang.org/x/text/language"
)

// TemplateKeys names the subject and body templates of a message.
type TemplateKeys struct {
	Subject string
	Body    string
}

// VerificationTemplates are the templates of the email verification message.
// Body args: first name, last name, verification link.
var VerificationTemplates = TemplateKeys{
	Subject: i18n.EmailVerificationSubject,
	Body:    i18n.EmailVerificationBody,
}

type messageSource interface {
	GetMessage(key string, args []string, locale language.Tag) (string, error)
}

// Composer builds localized HTML messages from templates.
type Composer struct {
	messages messageSource
}

func NewComposer(messages messageSource) *Composer {
	return &Composer{messages: messages}
}

// Compose renders the subject (no args) and the body (bodyArgs) for locale.
func (c *Composer) Compose(keys TemplateKeys, bodyArgs []string, locale language.Tag) (domain.Message, error) {
	subject, err := c.messages.GetMessage(keys.Subject, nil, locale)
	if err != nil {
		return domain.Message{}, fmt.Errorf("compose subject: %w", err)
	}
	body, err := c.messages.GetMessage(keys.Body, bodyArgs, locale)
	if err != nil {
		return domain.Message{}, fmt.Errorf("compose body: %w", err)
	}
	return domain.Message{Subject: subject, Body: body, HTML: true}, nil
}

// VerificationLink is the URL a recipient follows to confirm an address.
// baseURL is used as configured; a trailing slash is not stripped.
func VerificationLink(baseURL, contactID, tokenID string) string {
	return baseURL + "/api/userContactDetails/" + contactID + "/verifications/" + tokenID
}
