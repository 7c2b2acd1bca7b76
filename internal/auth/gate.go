// ABOUTME: HTTP Basic Auth credential gate for the admin UI path
// ABOUTME: Issues the jwt cookie bridging the HTTP login to the admin WebSocket

package auth

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// CookieName is the name of the admin token cookie.
const CookieName = "jwt"

type ctxKey int

const tokenKey ctxKey = iota

// TokenFromContext returns the admin token issued for this request, or "" if
// the request did not pass through Gate.Protect. The cookie is HttpOnly, so
// handlers that need to hand the token to page scripts read it from here.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// Auditor records admin-plane actions. Writes are best effort; implementations
// must never block on failure.
type Auditor interface {
	Append(actor, action, detail string)
}

// Gate protects the admin UI path with HTTP Basic Auth and converts a
// successful login into an admin token cookie.
type Gate struct {
	username     string
	passwordHash string
	uiPath       string
	tokens       *TokenStore
	audit        Auditor
	logger       *slog.Logger
}

// NewGate creates a credential gate for the given admin identity.
// passwordHash is a bcrypt hash. audit may be nil.
func NewGate(username, passwordHash, uiPath string, tokens *TokenStore, audit Auditor, logger *slog.Logger) *Gate {
	return &Gate{
		username:     username,
		passwordHash: passwordHash,
		uiPath:       uiPath,
		tokens:       tokens,
		audit:        audit,
		logger:       logger,
	}
}

// Protect wraps next so it is only reachable with valid admin credentials.
// On success a fresh token is issued and set as a Secure, HttpOnly cookie
// scoped to the admin UI path; any previously issued token stops validating.
func (g *Gate) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || !g.check(username, password) {
			g.logger.Warn("admin login rejected", "remote", r.RemoteAddr)
			if g.audit != nil {
				g.audit.Append(username, "login_failed", r.RemoteAddr)
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="scrivanod admin console"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		token, err := g.tokens.Issue()
		if err != nil {
			g.logger.Error("issuing admin token", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    token,
			Path:     g.uiPath,
			Secure:   true,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})

		g.logger.Info("admin login", "username", username, "remote", r.RemoteAddr)
		if g.audit != nil {
			g.audit.Append(username, "login_ok", r.RemoteAddr)
			g.audit.Append(username, "token_issued", "")
		}

		r = r.WithContext(context.WithValue(r.Context(), tokenKey, token))
		next.ServeHTTP(w, r)
	})
}

// check validates the presented credentials against the configured identity.
func (g *Gate) check(username, password string) bool {
	if username != g.username {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(g.passwordHash), []byte(password)) == nil
}
