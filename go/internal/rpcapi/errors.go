package rpcapi

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/rs/zerolog/log"
)

var (
	errMissingActor = errors.New("missing " + ActorHeader + " header")
	errInvalidActor = errors.New("invalid " + ActorHeader + " header")
	errInternal     = errors.New("internal server error")
)

// Metadata keys attached to mapped errors.
const (
	FieldKey         = "X-Error-Field"
	ConflictsWithKey = "X-Conflicts-With"
	RetryableKey     = "X-Retryable"
)

// toConnectError maps the error taxonomy onto Connect codes.
func toConnectError(err error) error {
	var (
		verr *apperrors.ValidationError
		cerr *apperrors.ConflictError
	)
	switch {
	// The cause of a failed side effect may itself be a NotFound or similar.
	case errors.Is(err, apperrors.ErrSideEffectFailed):
		ce := connect.NewError(connect.CodeUnavailable, err)
		ce.Meta().Set(RetryableKey, "true")
		return ce
	case errors.As(err, &verr):
		ce := connect.NewError(connect.CodeInvalidArgument, err)
		ce.Meta().Set(FieldKey, verr.Field)
		return ce
	case errors.As(err, &cerr):
		ce := connect.NewError(connect.CodeAlreadyExists, err)
		ce.Meta().Set(ConflictsWithKey, cerr.ExistingID)
		return ce
	case errors.Is(err, apperrors.ErrNotAuthorized):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, apperrors.ErrInvalidState):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, apperrors.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	default:
		log.Error().Err(err).Msg("rpc failed")
		return connect.NewError(connect.CodeInternal, errInternal)
	}
}

func logFailures() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			res, err := next(ctx, req)
			if err != nil && connect.CodeOf(err) == connect.CodeUnavailable {
				log.Warn().Err(err).Str("procedure", req.Spec().Procedure).Msg("accept side effect failed")
			}
			return res, err
		}
	}
}
