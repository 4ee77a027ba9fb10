package httpapi

import (
	"net/http"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/bookings"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/google/uuid"
)

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	groundID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req bookings.CreateBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := h.svc.Bookings.Create(r.Context(), actor, groundID, req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/bookings/"+b.ID.String())
	respondWithJSON(w, http.StatusCreated, b)
}

// ListBookings lists a ground's bookings for ?date= or for the inclusive ?from=&to= range.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	groundID, ok := pathID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	var (
		bs  []models.Booking
		err error
	)
	if raw := q.Get("date"); raw != "" {
		var date models.Date
		if date, err = models.ParseDate("date", raw); err != nil {
			respondWithAppError(w, r, err)
			return
		}
		bs, err = h.svc.Bookings.ListByDate(r.Context(), groundID, date)
	} else {
		if q.Get("from") == "" || q.Get("to") == "" {
			respondWithAppError(w, r, apperrors.Invalid("date", "", "date or from and to are required"))
			return
		}
		var from, to models.Date
		if from, err = models.ParseDate("from", q.Get("from")); err != nil {
			respondWithAppError(w, r, err)
			return
		}
		if to, err = models.ParseDate("to", q.Get("to")); err != nil {
			respondWithAppError(w, r, err)
			return
		}
		bs, err = h.svc.Bookings.ListByGroundAndRange(r.Context(), groundID, from, to)
	}
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if bs == nil {
		bs = []models.Booking{}
	}
	respondWithJSON(w, http.StatusOK, bs)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := h.svc.Bookings.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, b)
}

type confirmRequest struct {
	PaymentAmount int64 `json:"payment_amount"`
}

func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	h.bookingTransition(w, r, &req, func(actor, id uuid.UUID) (*models.Booking, error) {
		return h.svc.Bookings.ConfirmWithPayment(r.Context(), actor, id, req.PaymentAmount)
	})
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingTransition(w, r, nil, func(actor, id uuid.UUID) (*models.Booking, error) {
		return h.svc.Bookings.Cancel(r.Context(), actor, id)
	})
}

func (h *Handler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingTransition(w, r, nil, func(actor, id uuid.UUID) (*models.Booking, error) {
		return h.svc.Bookings.Complete(r.Context(), actor, id)
	})
}

func (h *Handler) bookingTransition(w http.ResponseWriter, r *http.Request, body any, op func(actor, id uuid.UUID) (*models.Booking, error)) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if body != nil && !decodeJSON(w, r, body) {
		return
	}
	b, err := op(actor, id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, b)
}
