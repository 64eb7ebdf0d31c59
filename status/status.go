// Package status carries the gRPC status (code, message, details) that the
// dispatch fabric emits as trailers (spec.md §3, §4.F, §7), in the same
// spirit as the teacher repo's *GoAwayError/*StreamError: a typed error
// that already knows how it should be reported.
package status

import (
	"errors"
	"fmt"

	"github.com/grpchost/grpchost/codes"
	"github.com/grpchost/grpchost/internal/frame"
)

// Status is a gRPC status: a code, a human message, and optional
// structured details (spec.md §3 "gRPC status").
type Status struct {
	Code    codes.Code
	Message string
	Details []any
}

// Error implements the error interface so handlers can `return nil, st`.
func (s *Status) Error() string {
	return fmt.Sprintf("rpc error: code = %s desc = %s", s.Code, s.Message)
}

// New builds a Status.
func New(code codes.Code, msg string) *Status {
	return &Status{Code: code, Message: msg}
}

// Newf builds a Status with a formatted message.
func Newf(code codes.Code, format string, args ...any) *Status {
	return New(code, fmt.Sprintf(format, args...))
}

// WithDetails returns a copy of s carrying the given details.
func (s *Status) WithDetails(details ...any) *Status {
	cp := *s
	cp.Details = append(append([]any{}, s.Details...), details...)
	return &cp
}

// OK is the canonical successful status.
var OK = New(codes.OK, "")

// FromError extracts a Status from err: a *Status (or anything wrapping
// one) propagates verbatim (spec.md §7 "Application" error kind); anything
// else is mapped per the taxonomy in Map, honoring debugMode for message
// redaction (spec.md §7 "Unexpected" error kind).
func FromError(err error, debugMode bool) *Status {
	if err == nil {
		return OK
	}

	var st *Status
	if errors.As(err, &st) {
		return st
	}

	return mapUnexpected(err, debugMode)
}

// mapUnexpected implements the exception-kind -> gRPC status mapping guide
// (spec.md §7): callers that want finer classification should return a
// *Status directly instead of relying on this best-effort fallback.
func mapUnexpected(err error, debugMode bool) *Status {
	code := codes.Internal

	switch {
	case errors.Is(err, ErrCancelled):
		code = codes.Canceled
	case errors.Is(err, ErrDeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, ErrInvalidArgument):
		code = codes.InvalidArgument
	case errors.Is(err, ErrOutOfRange):
		code = codes.OutOfRange
	}

	msg := "internal error"
	if code != codes.Internal || debugMode {
		msg = err.Error()
	}
	return New(code, msg)
}

// Sentinel classification errors a handler may wrap with fmt.Errorf("...: %w", ErrNotFound)
// to steer mapUnexpected without constructing a *Status by hand.
var (
	ErrCancelled        = errors.New("cancelled")
	ErrDeadlineExceeded = errors.New("deadline exceeded")
	ErrNotFound         = errors.New("not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrOutOfRange       = errors.New("out of range")
)

// FromHTTP2 maps an HTTP/2 error code to a gRPC status per spec.md §7's
// "HTTP/2 -> gRPC" table.
func FromHTTP2(code frame.ErrCode) *Status {
	switch code {
	case frame.ErrCodeRefusedStream:
		return New(codes.Unavailable, "stream refused")
	case frame.ErrCodeCancel:
		return New(codes.Canceled, "stream cancelled")
	case frame.ErrCodeEnhanceYourCalm:
		return New(codes.ResourceExhausted, "enhance your calm")
	case frame.ErrCodeInadequateSecurity:
		return New(codes.PermissionDenied, "inadequate security")
	default:
		return New(codes.Internal, code.String())
	}
}
