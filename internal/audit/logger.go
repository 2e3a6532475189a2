// Package audit records who changed what. Entries go to the structured log
// under an "audit" object so they can be filtered out of the access log.
package audit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Entry is one audited action.
type Entry struct {
	Timestamp    time.Time         `json:"timestamp"`
	Action       string            `json:"action"`
	UserID       int64             `json:"user_id,omitempty"`
	ResourceType string            `json:"resource_type,omitempty"`
	ResourceID   string            `json:"resource_id,omitempty"`
	IPAddress    string            `json:"ip_address"`
	Status       string            `json:"status"`
	Details      map[string]string `json:"details,omitempty"`
}

// Logger writes audit entries. A nil *Logger discards them.
type Logger struct {
	out zerolog.Logger
	now func() time.Time
}

func NewLogger(out zerolog.Logger) *Logger {
	return &Logger{
		out: out.With().Str("component", "audit").Logger(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Log writes entry, stamping it when Timestamp is zero. An empty requestID
// is left out.
func (l *Logger) Log(ctx context.Context, requestID string, entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}
	event := l.out.Info()
	if requestID != "" {
		event = event.Str("request_id", requestID)
	}
	event.Ctx(ctx).Interface("audit", entry).Msg("audit")
}

// Success records a completed action by userID on a resource.
func (l *Logger) Success(r *http.Request, requestID string, userID int64, action, resourceType string, resourceID int64) {
	entry := Entry{
		Action:       action,
		UserID:       userID,
		ResourceType: resourceType,
		IPAddress:    ClientIP(r),
		Status:       StatusSuccess,
	}
	if resourceID > 0 {
		entry.ResourceID = strconv.FormatInt(resourceID, 10)
	}
	l.Log(r.Context(), requestID, entry)
}

// Failure records a rejected action. Details must never carry secrets.
func (l *Logger) Failure(r *http.Request, requestID, action string, details map[string]string) {
	l.Log(r.Context(), requestID, Entry{
		Action:    action,
		IPAddress: ClientIP(r),
		Status:    StatusFailure,
		Details:   details,
	})
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's address without port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
