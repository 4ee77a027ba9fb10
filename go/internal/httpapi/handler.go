// Package httpapi exposes the booking and request workflow operations over HTTP/JSON.
// The caller's identity arrives already authenticated in the X-Actor-ID header.
package httpapi

import (
	"net/http"

	"github.com/criclink/criclink/go/internal/bookings"
	"github.com/criclink/criclink/go/internal/calendar"
	"github.com/criclink/criclink/go/internal/grounds"
	"github.com/criclink/criclink/go/internal/invitations"
	"github.com/criclink/criclink/go/internal/joinrequests"
	"github.com/criclink/criclink/go/internal/matchrequests"
	"github.com/criclink/criclink/go/internal/teams"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ActorHeader carries the authenticated actor id.
const ActorHeader = "X-Actor-ID"

// Services are the application components the API dispatches to.
type Services struct {
	Grounds       *grounds.App
	Bookings      *bookings.Ledger
	Calendar      *calendar.Aggregator
	Teams         *teams.App
	MatchRequests *matchrequests.Coordinator
	JoinRequests  *joinrequests.Coordinator
	Invitations   *invitations.Coordinator
}

type Handler struct {
	svc Services
}

func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the API under /api/v1.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(instrument)

	api.HandleFunc("/grounds", h.CreateGround).Methods(http.MethodPost)
	api.HandleFunc("/grounds", h.ListGrounds).Methods(http.MethodGet)
	api.HandleFunc("/grounds/{id}", h.GetGround).Methods(http.MethodGet)
	api.HandleFunc("/grounds/{id}", h.UpdateGround).Methods(http.MethodPut)
	api.HandleFunc("/grounds/{id}/quote", h.QuoteSlot).Methods(http.MethodGet)
	api.HandleFunc("/grounds/{id}/calendar", h.MarkedDates).Methods(http.MethodGet)
	api.HandleFunc("/grounds/{id}/bookings", h.CreateBooking).Methods(http.MethodPost)
	api.HandleFunc("/grounds/{id}/bookings", h.ListBookings).Methods(http.MethodGet)

	api.HandleFunc("/bookings/{id}", h.GetBooking).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/confirm", h.ConfirmBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/cancel", h.CancelBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/complete", h.CompleteBooking).Methods(http.MethodPost)

	api.HandleFunc("/teams", h.CreateTeam).Methods(http.MethodPost)
	api.HandleFunc("/teams/{id}", h.GetTeam).Methods(http.MethodGet)
	api.HandleFunc("/teams/{id}/matches", h.ListMatches).Methods(http.MethodGet)
	api.HandleFunc("/matches/{id}/result", h.RecordResult).Methods(http.MethodPost)

	registerRequestRoutes(api.PathPrefix("/match-requests").Subrouter(), h.svc.MatchRequests)
	registerRequestRoutes(api.PathPrefix("/join-requests").Subrouter(), h.svc.JoinRequests)
	registerRequestRoutes(api.PathPrefix("/invitations").Subrouter(), h.svc.Invitations)
}

// actorFrom reads the actor id or writes a 401 and reports false.
func actorFrom(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get(ActorHeader)
	if raw == "" {
		respondWithError(w, http.StatusUnauthorized, errorResponse{Error: "missing " + ActorHeader + " header", Code: "unauthenticated"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, errorResponse{Error: "invalid " + ActorHeader + " header", Code: "unauthenticated"})
		return uuid.Nil, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, errorResponse{Error: "invalid id " + raw, Code: "validation", Field: "id"})
		return uuid.Nil, false
	}
	return id, true
}
