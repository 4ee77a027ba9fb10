package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// requestCoordinator is the verb set every request kind exposes. S is the send input and V
// the outward view.
type requestCoordinator[S, V any] interface {
	Send(ctx context.Context, actor uuid.UUID, req S) (*V, error)
	Accept(ctx context.Context, actor, id uuid.UUID, responseMessage string) (*V, error)
	Reject(ctx context.Context, actor, id uuid.UUID, responseMessage string) (*V, error)
	Cancel(ctx context.Context, actor, id uuid.UUID) (*V, error)
	Get(ctx context.Context, id uuid.UUID) (*V, error)
	ListSent(ctx context.Context, actor uuid.UUID) ([]V, error)
	ListReceived(ctx context.Context, actor uuid.UUID) ([]V, error)
}

type respondRequest struct {
	ResponseMessage string `json:"response_message"`
}

type requestRoutes[S, V any] struct {
	coord requestCoordinator[S, V]
}

func registerRequestRoutes[S, V any](r *mux.Router, coord requestCoordinator[S, V]) {
	rr := requestRoutes[S, V]{coord: coord}
	r.HandleFunc("", rr.send).Methods(http.MethodPost)
	r.HandleFunc("", rr.list).Methods(http.MethodGet)
	r.HandleFunc("/{id}", rr.get).Methods(http.MethodGet)
	r.HandleFunc("/{id}/accept", rr.respond(coord.Accept)).Methods(http.MethodPost)
	r.HandleFunc("/{id}/reject", rr.respond(coord.Reject)).Methods(http.MethodPost)
	r.HandleFunc("/{id}/cancel", rr.cancel).Methods(http.MethodPost)
}

func (rr requestRoutes[S, V]) send(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req S
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := rr.coord.Send(r.Context(), actor, req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, v)
}

// list serves ?direction=sent (default) or ?direction=received for the actor.
func (rr requestRoutes[S, V]) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var (
		vs  []V
		err error
	)
	switch dir := r.URL.Query().Get("direction"); dir {
	case "", "sent":
		vs, err = rr.coord.ListSent(r.Context(), actor)
	case "received":
		vs, err = rr.coord.ListReceived(r.Context(), actor)
	default:
		err = apperrors.Invalid("direction", dir, "must be sent or received")
	}
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, vs)
}

func (rr requestRoutes[S, V]) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := rr.coord.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, v)
}

func (rr requestRoutes[S, V]) respond(op func(ctx context.Context, actor, id uuid.UUID, msg string) (*V, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		// The body is optional.
		var req respondRequest
		if r.ContentLength != 0 {
			if err := decodeOptional(r, &req); err != nil {
				respondWithError(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body: " + err.Error(), Code: "bad_request"})
				return
			}
		}
		v, err := op(r.Context(), actor, id, req.ResponseMessage)
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, v)
	}
}

func (rr requestRoutes[S, V]) cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := rr.coord.Cancel(r.Context(), actor, id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, v)
}

func decodeOptional(r *http.Request, dst any) error {
	err := jsonDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
