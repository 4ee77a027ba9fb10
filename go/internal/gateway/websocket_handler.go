package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

type WebSocketHandler struct {
	connectionManager *ConnectionManager
}

func NewWebSocketHandler(cm *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{connectionManager: cm}
}

// HandleCalendarConnection upgrades GET /ws/calendar?ground_id=... to a websocket.
func (h *WebSocketHandler) HandleCalendarConnection(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ground_id")
	if raw == "" {
		http.Error(w, "ground_id is required", http.StatusBadRequest)
		return
	}
	groundID, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "invalid ground_id format", http.StatusBadRequest)
		return
	}

	actorID := r.Header.Get("X-Actor-ID")
	if actorID == "" {
		actorID = "anonymous"
	}

	if err := h.connectionManager.UpgradeConnection(w, r, actorID, groundID); err != nil {
		// The upgrader has already replied to the client.
		log.Error().Err(err).Str("ground_id", groundID.String()).Msg("failed to upgrade websocket connection")
	}
}

func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.Stats()); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

func (h *WebSocketHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws/calendar", h.HandleCalendarConnection).Methods(http.MethodGet)
	r.HandleFunc("/ws/stats", h.HandleConnectionStats).Methods(http.MethodGet)
}
