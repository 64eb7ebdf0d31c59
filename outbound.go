package grpchost

import "github.com/grpchost/grpchost/metadata"

// actionKind tags one entry on a connection's single outbound queue
// (spec.md §5: "all writes to the connection socket go through a single
// writer... to preserve frame-boundary atomicity").
type actionKind int

const (
	actionHeaders actionKind = iota
	actionData
	actionTrailers
	actionRST
	actionWindowUpdate
	actionPing
	actionPingAck
	actionGoAway
	actionSettingsAck
	actionSettings
)

// outboundAction is one unit of work for the connection's writer
// goroutine. Exactly one of the payload fields is meaningful, selected by
// Kind.
type outboundAction struct {
	Kind     actionKind
	StreamID uint32

	Headers      metadata.MD
	EndStream    bool
	TrailersOnly bool

	Data []byte

	RSTCode uint32

	WindowIncrement uint32

	PingData [8]byte

	GoAwayCode uint32
	GoAwayMsg  string
}
