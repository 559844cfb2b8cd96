package tcp

import (
	"errors"
	"io"
	"net"
)

// ErrorKind classifies the outcome of a [Socket] API call, mirroring the
// small closed set of conditions a caller actually needs to branch on
// (rather than the open-ended set of internal sentinel errors the lower
// tcp/control.go and tcp/handler.go layers use for their own bookkeeping).
type ErrorKind uint8

const (
	ErrNone ErrorKind = iota
	ErrInvalidParameter
	ErrInvalidKeyLength
	ErrOutOfMemory
	ErrTimeout
	ErrAlreadyConnected
	ErrNotConnected
	ErrConnectionFailed
	ErrConnectionReset
	ErrConnectionClosing
	ErrEndOfStream
	ErrFailure
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNone:
		return "no error"
	case ErrInvalidParameter:
		return "invalid parameter"
	case ErrInvalidKeyLength:
		return "invalid key length"
	case ErrOutOfMemory:
		return "out of memory"
	case ErrTimeout:
		return "timeout"
	case ErrAlreadyConnected:
		return "already connected"
	case ErrNotConnected:
		return "not connected"
	case ErrConnectionFailed:
		return "connection failed"
	case ErrConnectionReset:
		return "connection reset"
	case ErrConnectionClosing:
		return "connection closing"
	case ErrEndOfStream:
		return "end of stream"
	default:
		return "failure"
	}
}

// socketError is a [Socket]-level error carrying an [ErrorKind] a caller can
// branch on via [errors.Is] against the package-level sentinels below, or via
// [socketError.Kind] directly.
type socketError struct {
	kind ErrorKind
	msg  string
}

func (e *socketError) Error() string { return e.msg }

// Kind reports the classified reason behind the error.
func (e *socketError) Kind() ErrorKind { return e.kind }

// Is makes errors.Is(err, ErrXxx) match any socketError of the same kind,
// not just the exact sentinel pointer; translateErr wraps the shared sentinel
// of the matching kind.
func (e *socketError) Is(target error) bool {
	other, ok := target.(*socketError)
	return ok && other.kind == e.kind
}

// Sentinels for the kinds translateErr can produce from a [Socket] call.
// Each also doubles as the prototype socketError.Is compares against.
var (
	ErrSockInvalidParameter = &socketError{kind: ErrInvalidParameter, msg: "tcp: invalid parameter"}
	ErrSockTimeout          = &socketError{kind: ErrTimeout, msg: "tcp: timeout"}
	ErrSockAlreadyConnected = &socketError{kind: ErrAlreadyConnected, msg: "tcp: already connected"}
	ErrSockNotConnected     = &socketError{kind: ErrNotConnected, msg: "tcp: not connected"}
	ErrSockConnFailed       = &socketError{kind: ErrConnectionFailed, msg: "tcp: connection failed"}
	ErrSockConnReset        = &socketError{kind: ErrConnectionReset, msg: "tcp: connection reset"}
	ErrSockConnClosing      = &socketError{kind: ErrConnectionClosing, msg: "tcp: connection closing"}
	ErrSockEndOfStream      = &socketError{kind: ErrEndOfStream, msg: "tcp: end of stream"}
	ErrSockFailure          = &socketError{kind: ErrFailure, msg: "tcp: failure"}
)

// translateErr maps an error surfaced by [Handler]/[Conn]/[ControlBlock] into
// the [ErrorKind] a [Socket] caller cares about. nil passes through
// unchanged. Errors not recognized by any case fall back to ErrSockFailure,
// still wrapping the original error so %w/errors.Unwrap keeps working.
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errDeadlineExceeded):
		return wrapKind(ErrSockTimeout, err)
	case errors.Is(err, io.EOF):
		return wrapKind(ErrSockEndOfStream, err)
	case errors.Is(err, net.ErrClosed):
		return wrapKind(ErrSockNotConnected, err)
	case errors.Is(err, errConnectionClosing):
		return wrapKind(ErrSockConnClosing, err)
	case errors.Is(err, errConnReset):
		return wrapKind(ErrSockConnReset, err)
	default:
		return wrapKind(ErrSockFailure, err)
	}
}

// wrappedSocketErr carries both the classified kind and the original
// underlying error, so callers can use errors.Is against either the
// classified sentinel or the original lower-level sentinel.
type wrappedSocketErr struct {
	*socketError
	cause error
}

func (e *wrappedSocketErr) Unwrap() error { return e.cause }

func wrapKind(kind *socketError, cause error) error {
	return &wrappedSocketErr{socketError: kind, cause: cause}
}
