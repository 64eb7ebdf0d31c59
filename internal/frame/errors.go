package frame

import "errors"

// ErrCode is an HTTP/2 connection/stream error code (RFC 7540 §7).
type ErrCode uint32

const (
	ErrCodeNo                 ErrCode = 0x0
	ErrCodeProtocol           ErrCode = 0x1
	ErrCodeInternal           ErrCode = 0x2
	ErrCodeFlowControl        ErrCode = 0x3
	ErrCodeSettingsTimeout    ErrCode = 0x4
	ErrCodeStreamClosed       ErrCode = 0x5
	ErrCodeFrameSize          ErrCode = 0x6
	ErrCodeRefusedStream      ErrCode = 0x7
	ErrCodeCancel             ErrCode = 0x8
	ErrCodeCompression        ErrCode = 0x9
	ErrCodeConnect            ErrCode = 0xa
	ErrCodeEnhanceYourCalm    ErrCode = 0xb
	ErrCodeInadequateSecurity ErrCode = 0xc
	ErrCodeHTTP11Required     ErrCode = 0xd
)

var errCodeNames = map[ErrCode]string{
	ErrCodeNo:                 "NO_ERROR",
	ErrCodeProtocol:           "PROTOCOL_ERROR",
	ErrCodeInternal:           "INTERNAL_ERROR",
	ErrCodeFlowControl:        "FLOW_CONTROL_ERROR",
	ErrCodeSettingsTimeout:    "SETTINGS_TIMEOUT",
	ErrCodeStreamClosed:       "STREAM_CLOSED",
	ErrCodeFrameSize:          "FRAME_SIZE_ERROR",
	ErrCodeRefusedStream:      "REFUSED_STREAM",
	ErrCodeCancel:             "CANCEL",
	ErrCodeCompression:        "COMPRESSION_ERROR",
	ErrCodeConnect:            "CONNECT_ERROR",
	ErrCodeEnhanceYourCalm:    "ENHANCE_YOUR_CALM",
	ErrCodeInadequateSecurity: "INADEQUATE_SECURITY",
	ErrCodeHTTP11Required:     "HTTP_1_1_REQUIRED",
}

func (c ErrCode) String() string {
	if s, ok := errCodeNames[c]; ok {
		return s
	}
	return "UNKNOWN_ERROR"
}

var (
	ErrUnknownFrameType   = errors.New("frame: unknown frame type")
	ErrPayloadExceeds     = errors.New("frame: payload exceeds negotiated MAX_FRAME_SIZE")
	ErrMissingBytes       = errors.New("frame: payload shorter than required")
	ErrFrameMismatch      = errors.New("frame: type mismatch on decode")
	ErrBadWindowIncrement = errors.New("frame: WINDOW_UPDATE increment is 0 or exceeds 2^31-1")
	ErrBadSettingsLength  = errors.New("frame: SETTINGS payload not a multiple of 6")
	ErrBadPingLength      = errors.New("frame: PING payload is not 8 bytes")
	ErrEvenStreamID       = errors.New("frame: client-initiated stream id must be odd")
	ErrStreamZero         = errors.New("frame: frame type forbidden on stream 0")
	ErrStreamNonZero      = errors.New("frame: frame type forbidden on a non-zero stream")
	ErrPushPromise        = errors.New("frame: server push is disabled, PUSH_PROMISE rejected")
)

// ConnError is a connection-level protocol violation: the driver must send
// GOAWAY with Code and close the connection (spec.md §4.D.4).
type ConnError struct {
	Code ErrCode
	Msg  string
}

func (e *ConnError) Error() string { return e.Code.String() + ": " + e.Msg }

// NewConnError builds a ConnError.
func NewConnError(code ErrCode, msg string) *ConnError {
	return &ConnError{Code: code, Msg: msg}
}

// StreamError is a stream-level protocol violation: the driver must send
// RST_STREAM with Code; the connection survives (spec.md §4.D.4).
type StreamError struct {
	StreamID uint32
	Code     ErrCode
	Msg      string
}

func (e *StreamError) Error() string { return e.Code.String() + ": " + e.Msg }

// NewStreamError builds a StreamError.
func NewStreamError(streamID uint32, code ErrCode, msg string) *StreamError {
	return &StreamError{StreamID: streamID, Code: code, Msg: msg}
}
