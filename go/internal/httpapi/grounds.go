package httpapi

import (
	"net/http"
	"strings"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/calendar"
	"github.com/criclink/criclink/go/internal/grounds"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/timeslot"
	"github.com/google/uuid"
)

func (h *Handler) CreateGround(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req grounds.CreateGroundRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := h.svc.Grounds.CreateGround(r.Context(), actor, req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/grounds/"+g.ID.String())
	respondWithJSON(w, http.StatusCreated, g)
}

// ListGrounds lists the grounds owned by ?owner_id=.
func (h *Handler) ListGrounds(w http.ResponseWriter, r *http.Request) {
	owner, err := uuid.Parse(r.URL.Query().Get("owner_id"))
	if err != nil {
		respondWithAppError(w, r, apperrors.Invalid("owner_id", r.URL.Query().Get("owner_id"), "must be a UUID"))
		return
	}
	gs, err := h.svc.Grounds.ListGroundsByOwner(r.Context(), owner)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, gs)
}

func (h *Handler) GetGround(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	g, err := h.svc.Grounds.GetGround(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, g)
}

func (h *Handler) UpdateGround(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req grounds.UpdateGroundRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := h.svc.Grounds.UpdateGround(r.Context(), actor, id, req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, g)
}

// QuoteSlot prices ?date=&start=&end=[&add_on=...] at the ground.
func (h *Handler) QuoteSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	date, err := models.ParseDate("date", q.Get("date"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	slot, err := timeslot.NewSlot(q.Get("start"), q.Get("end"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var addOns []string
	for _, a := range q["add_on"] {
		if a = strings.TrimSpace(a); a != "" {
			addOns = append(addOns, a)
		}
	}

	quote, err := h.svc.Grounds.Quote(r.Context(), id, date, slot, addOns)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, quote)
}

// MarkedDates returns the ground's calendar markers, optionally limited to ?from=&to=.
func (h *Handler) MarkedDates(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	var (
		marks map[models.Date]calendar.Marker
		err   error
	)
	if q.Get("from") == "" && q.Get("to") == "" {
		marks, err = h.svc.Calendar.MarkedDates(r.Context(), id)
	} else {
		var from, to models.Date
		if from, err = models.ParseDate("from", q.Get("from")); err != nil {
			respondWithAppError(w, r, err)
			return
		}
		if to, err = models.ParseDate("to", q.Get("to")); err != nil {
			respondWithAppError(w, r, err)
			return
		}
		marks, err = h.svc.Calendar.MarkedDatesInRange(r.Context(), id, from, to)
	}
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, marks)
}
