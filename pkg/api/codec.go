// Package api defines the wire contract of the ledger's Connect services:
// procedure names, request/response messages and typed clients.
//
// Messages are plain Go structs carried as JSON. Both handlers and clients
// must be built with WithJSON so Connect uses Codec instead of protobuf.
package api

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// Codec marshals messages as JSON under Connect's "json" codec name.
type Codec struct{}

// Name implements connect.Codec.
func (Codec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal implements connect.Codec. An empty body leaves msg untouched.
func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// WithJSON registers Codec on a handler or client.
func WithJSON() connect.Option {
	return connect.WithCodec(Codec{})
}
