package http

import (
	"net/http"

	"github.com/deepscout/deepscout/internal/service"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Handlers bundles the HTTP handlers over the application services.
type Handlers struct {
	research *service.Research
	users    *service.Users
}

// NewHandlers creates the handler set.
func NewHandlers(research *service.Research, users *service.Users) *Handlers {
	return &Handlers{research: research, users: users}
}

// ConnCounter reports the number of live WebSocket connections.
type ConnCounter interface {
	ConnectionCount() int
}

// HealthHandler reports liveness plus the configured backing services.
func HealthHandler(natsURL string, conns ConnCounter) http.HandlerFunc {
	type healthStatus struct {
		Status        string `json:"status"`
		NATS          string `json:"nats"`
		WSConnections int    `json:"ws_connections"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthStatus{
			Status:        "ok",
			NATS:          natsURL,
			WSConnections: conns.ConnectionCount(),
		})
	}
}
