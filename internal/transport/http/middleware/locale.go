package middleware

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
)

const localeKey contextKey = "locale"

// Locale resolves Accept-Language against the supported locales with match and
// stores the result in the request context.
func Locale(match func(prefs ...language.Tag) language.Tag) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Malformed headers yield no preferences and therefore the fallback.
			prefs, _, _ := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
			ctx := context.WithValue(r.Context(), localeKey, match(prefs...))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LocaleFromContext returns the request locale, or language.Und when Locale did not run.
func LocaleFromContext(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(localeKey).(language.Tag); ok {
		return tag
	}
	return language.Und
}
