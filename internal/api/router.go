package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/lexc24/tictactoe/internal/api/apierr"
	"github.com/lexc24/tictactoe/internal/api/response"
	"github.com/lexc24/tictactoe/internal/middleware"
	"github.com/lexc24/tictactoe/internal/services/matchmaking"
)

// RouterConfig holds configuration for the HTTP router
type RouterConfig struct {
	Logger     *slog.Logger
	Controller *matchmaking.Controller

	// WSHandler serves the websocket upgrade endpoint. It is mounted
	// outside the buffered middleware chain so the hijacked connection
	// stays untouched.
	WSHandler http.Handler

	// RateLimit is the per-IP request rate for the JSON API; zero
	// disables limiting
	RateLimit float64
	RateBurst int
}

// NewRouter creates the HTTP router: the JSON API under /api/v1 and the
// websocket endpoint at /ws
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, errors.New("panic recovered"))
	})

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	if cfg.RateLimit > 0 {
		api.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateBurst, cfg.Logger))
	}

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/queue", queueHandler(cfg.Controller)).Methods(http.MethodGet)

	r.Handle("/ws", cfg.WSHandler).Methods(http.MethodGet)

	return cors.Default().Handler(r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// queueHandler serves the current queue snapshot, the same view the
// notifier pushes over websockets
func queueHandler(controller *matchmaking.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := controller.Snapshot(r.Context())
		if err != nil {
			apierr.WriteError(w, err)
			return
		}
		response.JSON(w, http.StatusOK, snapshot)
	}
}
