package service

import (
	"errors"
	"fmt"
)

// Per-frame and per-signal failures. Each is local to one frame of one session.
var (
	ErrValidation = errors.New("validation error")
	// ErrUnknownUser also matches ErrValidation. The transport closes the
	// connection when it sees it.
	ErrUnknownUser = fmt.Errorf("%w: unknown user", ErrValidation)
	ErrDecode      = errors.New("decode error")
	ErrDetection   = errors.New("detection failure")
	ErrRecognition = errors.New("recognition failure")
	ErrEncode      = errors.New("encode failure")
	ErrPersistence = errors.New("persistence failure")

	// ErrFrameDropped means another frame of the session was in flight.
	// It is never reported to the client.
	ErrFrameDropped = errors.New("frame dropped")
)
