package http

import (
	"github.com/go-notify-api/internal/application/verification"
	jwtinfra "github.com/go-notify-api/internal/infrastructure/jwt"
	"github.com/go-notify-api/internal/metrics"
	"github.com/go-notify-api/internal/transport/http/handler"
	"golang.org/x/text/language"
)

// Deps holds the application services and infrastructure the router needs.
type Deps struct {
	Verifications verification.Service
	Notifications handler.NotificationSender
	JWTProvider   *jwtinfra.Provider
	Metrics       *metrics.Metrics
	// MatchLocale picks the supported locale closest to the Accept-Language preferences.
	MatchLocale func(prefs ...language.Tag) language.Tag
}
