// Package web holds the embedded HTML templates and static assets.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses every page template together with the shared header and
// footer. Pages are executed by file name, e.g. "login.html".
func Templates() (*template.Template, error) {
	return template.New("eventdesk").ParseFS(templateFS, "templates/*.html")
}
