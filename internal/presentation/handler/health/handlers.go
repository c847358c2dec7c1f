package health

import (
	"net/http"
	"time"

	"github.com/walklabs/chat-service/internal/infrastructure/json"
)

type Handler struct {
	startTime time.Time
	ready     func() bool
}

// NewHandler builds the health handler. ready reports whether the event
// consumer is running; nil means always ready.
func NewHandler(ready func() bool) *Handler {
	if ready == nil {
		ready = func() bool { return true }
	}
	return &Handler{
		startTime: time.Now(),
		ready:     ready,
	}
}

// GetHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API, including uptime and current timestamp
// @Tags         health
// @Produce      json
// @Success      200 {object} healthResponse "Service is healthy"
// @Failure      503 {object} healthResponse "Service is unhealthy"
// @Router       /health [get]
// @Router       /healthz [get]
// @Router       /ready [get]
// @Router       /live [get]
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	if !h.ready() {
		status = http.StatusServiceUnavailable
		body.Status = "unhealthy"
	}

	json.Write(w, status, body)
}
