package rpcapi

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/bookings"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/google/uuid"
)

const BookingServiceName = "criclink.v1.BookingService"

const (
	CreateBookingProcedure   = "/" + BookingServiceName + "/Create"
	ConfirmBookingProcedure  = "/" + BookingServiceName + "/Confirm"
	CancelBookingProcedure   = "/" + BookingServiceName + "/Cancel"
	CompleteBookingProcedure = "/" + BookingServiceName + "/Complete"
	GetBookingProcedure      = "/" + BookingServiceName + "/Get"
)

// BookingLedger is what the booking service needs from the ledger.
type BookingLedger interface {
	Create(ctx context.Context, actor, groundID uuid.UUID, req bookings.CreateBookingRequest) (*models.Booking, error)
	ConfirmWithPayment(ctx context.Context, actor, id uuid.UUID, amount int64) (*models.Booking, error)
	Cancel(ctx context.Context, actor, id uuid.UUID) (*models.Booking, error)
	Complete(ctx context.Context, actor, id uuid.UUID) (*models.Booking, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

type CreateBookingRequest struct {
	GroundID uuid.UUID `json:"ground_id"`
	bookings.CreateBookingRequest
}

type BookingRequest struct {
	BookingID     uuid.UUID `json:"booking_id"`
	PaymentAmount int64     `json:"payment_amount,omitempty"`
}

type bookingService struct {
	ledger BookingLedger
}

// NewBookingServiceHandler returns the path prefix and handler serving the booking verbs.
func NewBookingServiceHandler(ledger BookingLedger, opts ...connect.HandlerOption) (string, http.Handler) {
	s := bookingService{ledger: ledger}
	o := handlerOptions(opts)

	mux := http.NewServeMux()
	mux.Handle(CreateBookingProcedure, connect.NewUnaryHandler(CreateBookingProcedure, s.create, o...))
	mux.Handle(ConfirmBookingProcedure, connect.NewUnaryHandler(ConfirmBookingProcedure, s.transition(func(ctx context.Context, actor uuid.UUID, req *BookingRequest) (*models.Booking, error) {
		return s.ledger.ConfirmWithPayment(ctx, actor, req.BookingID, req.PaymentAmount)
	}), o...))
	mux.Handle(CancelBookingProcedure, connect.NewUnaryHandler(CancelBookingProcedure, s.transition(func(ctx context.Context, actor uuid.UUID, req *BookingRequest) (*models.Booking, error) {
		return s.ledger.Cancel(ctx, actor, req.BookingID)
	}), o...))
	mux.Handle(CompleteBookingProcedure, connect.NewUnaryHandler(CompleteBookingProcedure, s.transition(func(ctx context.Context, actor uuid.UUID, req *BookingRequest) (*models.Booking, error) {
		return s.ledger.Complete(ctx, actor, req.BookingID)
	}), o...))
	mux.Handle(GetBookingProcedure, connect.NewUnaryHandler(GetBookingProcedure, s.get, o...))
	return "/" + BookingServiceName + "/", mux
}

func (s bookingService) create(ctx context.Context, req *connect.Request[CreateBookingRequest]) (*connect.Response[models.Booking], error) {
	actor, err := actorFrom(req.Header())
	if err != nil {
		return nil, err
	}
	if req.Msg.GroundID == uuid.Nil {
		return nil, toConnectError(apperrors.Invalid("ground_id", "", "ground_id is required"))
	}
	b, err := s.ledger.Create(ctx, actor, req.Msg.GroundID, req.Msg.CreateBookingRequest)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(b), nil
}

func (s bookingService) get(ctx context.Context, req *connect.Request[BookingRequest]) (*connect.Response[models.Booking], error) {
	b, err := s.ledger.Get(ctx, req.Msg.BookingID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(b), nil
}

func (s bookingService) transition(op func(ctx context.Context, actor uuid.UUID, req *BookingRequest) (*models.Booking, error)) func(context.Context, *connect.Request[BookingRequest]) (*connect.Response[models.Booking], error) {
	return func(ctx context.Context, req *connect.Request[BookingRequest]) (*connect.Response[models.Booking], error) {
		actor, err := actorFrom(req.Header())
		if err != nil {
			return nil, err
		}
		b, err := op(ctx, actor, req.Msg)
		if err != nil {
			return nil, toConnectError(err)
		}
		return connect.NewResponse(b), nil
	}
}
