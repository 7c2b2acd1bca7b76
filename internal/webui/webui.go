// ABOUTME: Serves the embedded admin console page behind the credential gate
// ABOUTME: Injects the freshly issued admin token for the WebSocket handshake

package webui

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/scrivano/scrivano/internal/auth"
)

type consoleData struct {
	Title  string
	Token  string
	WSPath string
}

// Console renders the admin console page. The page script authenticates to the
// admin WebSocket with the token issued by the credential gate; the jwt cookie
// is HttpOnly, so the token is injected into the page instead.
type Console struct {
	wsPath string
	logger *slog.Logger
}

// NewConsole creates the console handler. wsPath is the admin WebSocket
// endpoint the page connects to.
func NewConsole(wsPath string, logger *slog.Logger) *Console {
	return &Console{wsPath: wsPath, logger: logger}
}

func (c *Console) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/console.html"))

	data := consoleData{
		Title:  "scrivanod admin console",
		Token:  auth.TokenFromContext(r.Context()),
		WSPath: c.wsPath,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		c.logger.Error("failed to render admin console", "error", err)
	}
}
