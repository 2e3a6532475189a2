package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
)

const healthTimeout = 5 * time.Second

type healthResponse struct {
	OK    bool   `json:"ok"`
	DB    string `json:"db,omitempty"`
	Error string `json:"error,omitempty"`
}

// Health runs a trivial query against the store. It is the one endpoint
// that reports the failure text to the caller.
func Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	err := ping(ctx, r)
	if err != nil {
		middleware.LoggerFromContext(r.Context()).Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusInternalServerError, healthResponse{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{OK: true, DB: "ok"})
}

func ping(ctx context.Context, r *http.Request) error {
	store, err := middleware.Store(r.WithContext(ctx))
	if err != nil {
		return err
	}
	return store.Ping(ctx)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
