package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when no endpoint is set. It is an
	// expected state, not a failure.
	ErrNotConfigured = errors.New("remote not configured")

	// ErrUnreachable is returned when the remote cannot be read: transport
	// error, non-2xx status, or malformed payload.
	ErrUnreachable = errors.New("remote unreachable")
)

func unreachable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// Status is the outcome of a remote write.
type Status string

const (
	// StatusConfirmed: the remote answered 2xx.
	StatusConfirmed Status = "confirmed"
	// StatusDispatched: the request left without a transport error but the
	// response was not inspected.
	StatusDispatched Status = "dispatched"
	// StatusFailed: transport error, or non-2xx in confirm mode.
	StatusFailed Status = "failed"
	// StatusNotConfigured: no endpoint; nothing was sent.
	StatusNotConfigured Status = "not_configured"
)

// Result describes a remote write.
type Result struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func Confirmed() Result     { return Result{Status: StatusConfirmed} }
func Dispatched() Result    { return Result{Status: StatusDispatched} }
func NotConfigured() Result { return Result{Status: StatusNotConfigured, Reason: "not_configured"} }

func Failed(reason string) Result {
	return Result{Status: StatusFailed, Reason: reason}
}

// Succeeded is true for confirmed and dispatched writes.
func (r Result) Succeeded() bool {
	return r.Status == StatusConfirmed || r.Status == StatusDispatched
}
