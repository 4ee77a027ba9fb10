package rpcapi

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
)

const (
	MatchRequestServiceName = "criclink.v1.MatchRequestService"
	JoinRequestServiceName  = "criclink.v1.JoinRequestService"
	InvitationServiceName   = "criclink.v1.InvitationService"
)

// RequestCoordinator is the verb set every request kind exposes. S is the send input and V
// the outward view.
type RequestCoordinator[S, V any] interface {
	Send(ctx context.Context, actor uuid.UUID, req S) (*V, error)
	Accept(ctx context.Context, actor, id uuid.UUID, responseMessage string) (*V, error)
	Reject(ctx context.Context, actor, id uuid.UUID, responseMessage string) (*V, error)
	Cancel(ctx context.Context, actor, id uuid.UUID) (*V, error)
	Get(ctx context.Context, id uuid.UUID) (*V, error)
}

type RespondRequest struct {
	ID              uuid.UUID `json:"id"`
	ResponseMessage string    `json:"response_message,omitempty"`
}

type requestService[S, V any] struct {
	coord RequestCoordinator[S, V]
}

// NewRequestServiceHandler serves Send, Accept, Reject, Cancel and Get for one request kind
// under service.
func NewRequestServiceHandler[S, V any](service string, coord RequestCoordinator[S, V], opts ...connect.HandlerOption) (string, http.Handler) {
	s := requestService[S, V]{coord: coord}
	o := handlerOptions(opts)
	prefix := "/" + service + "/"

	mux := http.NewServeMux()
	mux.Handle(prefix+"Send", connect.NewUnaryHandler(prefix+"Send", s.send, o...))
	mux.Handle(prefix+"Accept", connect.NewUnaryHandler(prefix+"Accept", s.respond(coord.Accept), o...))
	mux.Handle(prefix+"Reject", connect.NewUnaryHandler(prefix+"Reject", s.respond(coord.Reject), o...))
	mux.Handle(prefix+"Cancel", connect.NewUnaryHandler(prefix+"Cancel", s.cancel, o...))
	mux.Handle(prefix+"Get", connect.NewUnaryHandler(prefix+"Get", s.get, o...))
	return prefix, mux
}

func (s requestService[S, V]) send(ctx context.Context, req *connect.Request[S]) (*connect.Response[V], error) {
	actor, err := actorFrom(req.Header())
	if err != nil {
		return nil, err
	}
	v, err := s.coord.Send(ctx, actor, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(v), nil
}

func (s requestService[S, V]) respond(op func(ctx context.Context, actor, id uuid.UUID, msg string) (*V, error)) func(context.Context, *connect.Request[RespondRequest]) (*connect.Response[V], error) {
	return func(ctx context.Context, req *connect.Request[RespondRequest]) (*connect.Response[V], error) {
		actor, err := actorFrom(req.Header())
		if err != nil {
			return nil, err
		}
		v, err := op(ctx, actor, req.Msg.ID, req.Msg.ResponseMessage)
		if err != nil {
			return nil, toConnectError(err)
		}
		return connect.NewResponse(v), nil
	}
}

func (s requestService[S, V]) cancel(ctx context.Context, req *connect.Request[RespondRequest]) (*connect.Response[V], error) {
	actor, err := actorFrom(req.Header())
	if err != nil {
		return nil, err
	}
	v, err := s.coord.Cancel(ctx, actor, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(v), nil
}

func (s requestService[S, V]) get(ctx context.Context, req *connect.Request[RespondRequest]) (*connect.Response[V], error) {
	v, err := s.coord.Get(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(v), nil
}
