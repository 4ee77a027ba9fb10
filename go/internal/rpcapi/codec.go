// Package rpcapi serves the booking and request workflow verbs as Connect unary procedures.
// Messages are the same JSON shapes the REST surface uses, carried by a plain encoding/json
// codec instead of generated protobuf types.
package rpcapi

import (
	"bytes"
	"encoding/json"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
)

// ActorHeader carries the authenticated actor id.
const ActorHeader = "X-Actor-ID"

// JSONCodec marshals Connect messages with encoding/json. It registers under the "json"
// name so clients speak application/json and application/connect+json.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(msg)
}

// handlerOptions are applied to every procedure.
func handlerOptions(extra []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{
		connect.WithCodec(JSONCodec{}),
		connect.WithInterceptors(logFailures()),
	}, extra...)
}

func actorFrom(h http.Header) (uuid.UUID, error) {
	raw := h.Get(ActorHeader)
	if raw == "" {
		return uuid.Nil, connect.NewError(connect.CodeUnauthenticated, errMissingActor)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, connect.NewError(connect.CodeUnauthenticated, errInvalidActor)
	}
	return id, nil
}
