package httpapi

import (
	"net/http"

	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/teams"
)

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req teams.CreateTeamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.svc.Teams.CreateTeam(r.Context(), actor, req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/teams/"+t.ID.String())
	respondWithJSON(w, http.StatusCreated, t)
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.svc.Teams.GetTeamWithMatches(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, t)
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ms, err := h.svc.Teams.ListMatches(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if ms == nil {
		ms = []models.Match{}
	}
	respondWithJSON(w, http.StatusOK, ms)
}

func (h *Handler) RecordResult(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req teams.RecordResultRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.svc.Teams.RecordResult(r.Context(), actor, id, req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, m)
}
