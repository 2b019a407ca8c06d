package handlers

import (
	"context"
	"net/http"
	"time"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, dbState := http.StatusOK, "ok"
	if err := h.db.PingContext(ctx); err != nil {
		status, dbState = http.StatusServiceUnavailable, "unavailable"
	}
	if err := writeJSON(w, status, jsonResponse{"status": http.StatusText(status), "database": dbState}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
