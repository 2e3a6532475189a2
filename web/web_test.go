package web

import (
	"bytes"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesParse(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	for _, name := range []string{"login.html", "dashboard.html", "events_list.html", "event_form.html", "header", "footer"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestLoginTemplateEscapes(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = tmpl.ExecuteTemplate(&buf, "login.html", map[string]any{
		"Title":     "Sign in",
		"Error":     "Invalid email or password.",
		"Email":     `<script>alert(1)</script>`,
		"CSRFField": template.HTML(`<input type="hidden" name="csrf_token" value="tok">`),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Invalid email or password.")
	assert.Contains(t, out, `name="csrf_token"`)
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.NotContains(t, out, "Log out", "anonymous pages have no navigation")
}

func TestStaticHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	StaticHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/css"))
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
}

func TestRobotsTxtHandler(t *testing.T) {
	tests := []struct {
		method     string
		wantStatus int
	}{
		{http.MethodGet, http.StatusOK},
		{http.MethodHead, http.StatusOK},
		{http.MethodPost, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		RobotsTxtHandler().ServeHTTP(rec, httptest.NewRequest(tt.method, "/robots.txt", nil))
		assert.Equal(t, tt.wantStatus, rec.Code, tt.method)
	}

	rec := httptest.NewRecorder()
	RobotsTxtHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))
	assert.Contains(t, rec.Body.String(), "Disallow: /")
}
