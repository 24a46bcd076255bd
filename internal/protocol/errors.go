package protocol

import "errors"

var (
	ErrUnknownPacketType  = errors.New("protocol: unknown packet type")
	ErrUnknownIconKind    = errors.New("protocol: unknown icon kind")
	ErrUnknownActionKind  = errors.New("protocol: unknown action kind")
	ErrMissingIconData    = errors.New("protocol: custom icon without image data")
	ErrTruncated          = errors.New("protocol: truncated payload")
	ErrPacketTypeMismatch = errors.New("protocol: packet type mismatch")
	ErrFragmentMismatch   = errors.New("protocol: fragment does not belong to message")
)
