// ABOUTME: Embeds the admin console HTML templates into the binary
// ABOUTME: Provides templateFS for rendering at runtime

package webui

import "embed"

//go:embed templates/*.html
var templateFS embed.FS
