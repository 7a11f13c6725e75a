package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/tvbf/internal/models"
	"github.com/desertthunder/tvbf/internal/shared"
)

// Error is a failed service call with a display-ready message.
//
// It unwraps to a sentinel from the shared package and, for transport failures, the underlying cause.
type Error struct {
	Op         string // Operation name, e.g. "login"
	StatusCode int    // HTTP status, zero when no response was received
	Message    string // Server-supplied or fallback message
	Err        error  // Sentinel classifying the failure
	Cause      error  // Underlying transport or decode error, if any
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Message returns the display string for err: the service message for [*Error], err.Error() otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return err.Error()
}

// StatusCode returns the HTTP status carried by err, or zero.
func StatusCode(err error) int {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.StatusCode
	}
	return 0
}

// transportError wraps a failure where no response was received.
func transportError(op string, err error) *Error {
	return &Error{
		Op:      op,
		Message: fmt.Sprintf("%s: %v", op, err),
		Err:     shared.ErrServiceUnavailable,
		Cause:   err,
	}
}

// responseError builds an [*Error] from a non-2xx response, preferring the body's {"error"} message over fallback.
func responseError(op string, resp *APIResponse, fallback string, sentinel error) *Error {
	msg := fallback
	var body models.ErrorBody
	if err := json.Unmarshal(resp.Body, &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	return &Error{Op: op, StatusCode: resp.StatusCode, Message: msg, Err: sentinel}
}

// expect turns a raw response into a decoded value or an [*Error].
func expect(op string, resp *APIResponse, err error, fallback string, sentinel error, out any) error {
	if err != nil {
		var svcErr *Error
		if errors.As(err, &svcErr) {
			return err
		}
		return transportError(op, err)
	}

	if !resp.OK() {
		return responseError(op, resp, fallback, sentinel)
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}

	if err := resp.Decode(out); err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: fallback, Err: shared.ErrAPIRequest, Cause: err}
	}
	return nil
}
