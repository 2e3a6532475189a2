package middleware

import (
	"net/http"

	"github.com/gorilla/csrf"
)

// CSRFFieldName is the form field the token travels in.
const CSRFFieldName = "csrf_token"

// CSRFProtection guards every state-changing form post with a
// double-submit token. Templates embed it with csrf.TemplateField.
//
// When secure is false the site is served over plain HTTP, so requests are
// marked plaintext and gorilla/csrf skips its HTTPS-only Referer check.
func CSRFProtection(authKey []byte, secure bool) func(http.Handler) http.Handler {
	protect := csrf.Protect(authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(CSRFFieldName),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		if secure {
			return protected
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	LoggerFromContext(r.Context()).Warn().
		Str("path", r.URL.Path).
		AnErr("reason", csrf.FailureReason(r)).
		Msg("csrf validation failed")
	http.Error(w, "Forbidden - CSRF token invalid", http.StatusForbidden)
}
