package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-notify-api/internal/config"
	"github.com/go-notify-api/internal/domain"
	"github.com/go-notify-api/internal/transport/http/handler"
	appmiddleware "github.com/go-notify-api/internal/transport/http/middleware"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		// Without a public key nobody can authenticate.
		authMw = func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"error":"authentication unavailable"}`, http.StatusUnauthorized)
			})
		}
	}

	matchLocale := deps.MatchLocale
	if matchLocale == nil {
		matchLocale = func(...language.Tag) language.Tag { return language.Und }
	}

	// 1 request/second, burst of 5: each accepted request sends an email.
	mailRL := appmiddleware.NewRateLimiter(rate.Limit(1), 5)

	healthH := handler.NewHealthHandler()
	verifyH := handler.NewContactVerificationHandler(deps.Verifications)
	notifH := handler.NewNotificationHandler(deps.Notifications)

	r.Get("/health-check/{action}", healthH.Ping)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(appmiddleware.Locale(matchLocale))

		// Public: the emailed link lands here.
		r.Get("/userContactDetails/{id}/verifications/{tokenId}", verifyH.Confirm)

		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/userContactDetails/{id}/verifications", verifyH.GetPending)
			r.With(mailRL.Limit).Post("/userContactDetails/{id}/verifications", verifyH.Request)
			r.With(mailRL.Limit).Post("/userContactDetails/{id}/verifications/resend", verifyH.Resend)

			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Post("/notifications", notifH.Send)
			})
		})
	})

	return r
}
