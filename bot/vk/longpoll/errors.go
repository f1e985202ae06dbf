package longpoll

import (
	"fmt"
	"strconv"
)

// NegotiationError reports a rejected session request:
// invalid credentials, unknown group and so on.
type NegotiationError struct {
	GroupID int64
	Err     error
}

func (e *NegotiationError) Error() string {
	return "longpoll: negotiate group " + strconv.FormatInt(e.GroupID, 10) + ": " + e.Err.Error()
}

func (e *NegotiationError) Unwrap() error {
	return e.Err
}

// TransportError reports a network-level poll failure:
// timeout, connection reset, bad HTTP status or malformed response.
type TransportError struct {
	// Op is one of "request", "status", "decode"
	Op string
	// Status is the HTTP status code, if any
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("longpoll: %s: http %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("longpoll: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AbortError is fatal for the Poller.
// Run returns it after the loop has stopped.
type AbortError struct {
	Reason string
	// Code is the failure code that caused the abort, if any
	Code int
	// Err is the consumer error, if any
	Err error
}

func (e *AbortError) Error() string {
	if e.Err != nil {
		return "longpoll: abort: " + e.Reason + ": " + e.Err.Error()
	}
	return "longpoll: abort: " + e.Reason
}

func (e *AbortError) Unwrap() error {
	return e.Err
}
