package observerproto

import (
	"palletvox.app/internal/grid"
	"palletvox.app/internal/stats"
)

// Version is the observer feed protocol version.
const Version = "1.0"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeState     = "STATE"
	TypeError     = "ERROR"
)

// Error codes sent in ErrorMsg.Code and in HTTP error bodies.
const (
	ErrBadRequest = "E_BAD_REQUEST"
	ErrNotFound   = "E_NOT_FOUND"
	ErrForbidden  = "E_FORBIDDEN"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest: {},
	ErrNotFound:   {},
	ErrForbidden:  {},
	ErrInternal:   {},
}

func IsKnownCode(code string) bool {
	_, ok := knownCodes[code]
	return ok
}

// Client -> Server. First message on the observer WS connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// Cubes asks for the RLE occupancy in every state message.
	Cubes bool `json:"cubes,omitempty"`
}

// Server -> Client. Sent on subscribe and after every change; also the body of
// GET /v1/state.
type StateMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Seq             uint64 `json:"seq"`

	PaletteID  string          `json:"palette_id"`
	Name       string          `json:"name"`
	Dimensions grid.Dimensions `json:"dimensions"`
	Stats      stats.Stats     `json:"stats"`

	View       string     `json:"view,omitempty"`
	Eye        [3]float64 `json:"eye"`
	Target     [3]float64 `json:"target"`
	Hover      string     `json:"hover,omitempty"`
	Confirming bool       `json:"confirming,omitempty"`

	Occupancy string `json:"occupancy,omitempty"`
}

type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewError(code, msg string) ErrorMsg {
	return ErrorMsg{Type: TypeError, Code: code, Message: msg}
}
