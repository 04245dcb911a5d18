// Package failure carries domain errors to the transport layer. A Failure knows its HTTP code
// and a machine-readable reason; anything else is reported as an internal error.
package failure

import (
	"errors"
	"net/http"
)

const (
	ReasonValidation        = "validation"
	ReasonUnauthorized      = "unauthorized"
	ReasonForbidden         = "forbidden"
	ReasonNotFound          = "not_found"
	ReasonScheduleConflict  = "schedule_conflict"
	ReasonInvalidState      = "invalid_state"
	ReasonInvalidTransition = "invalid_transition"
	ReasonInvalidOperation  = "invalid_operation"
)

type Failure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
	Details any    `json:"details,omitempty"`
}

var (
	ForbiddenError          = &Failure{Code: http.StatusForbidden, Message: "You don't have the required permissions", Reason: ReasonForbidden}
	ResourceRestrictedError = &Failure{Code: http.StatusForbidden, Message: "You don't have permission to access this resource", Reason: ReasonForbidden}
)

func (e *Failure) Error() string {
	return e.Message
}

func newFailure(code int, reason, message string) *Failure {
	return &Failure{Code: code, Message: message, Reason: reason}
}

// BadRequest wraps a validation error. A nil error stays nil.
func BadRequest(err error) error {
	if err == nil {
		return nil
	}

	return newFailure(http.StatusBadRequest, ReasonValidation, err.Error())
}

func BadRequestFromString(msg string) error {
	return newFailure(http.StatusBadRequest, ReasonValidation, msg)
}

func Unauthorized(msg string) error {
	return newFailure(http.StatusUnauthorized, ReasonUnauthorized, msg)
}

func NotFound(msg string) error {
	return newFailure(http.StatusNotFound, ReasonNotFound, msg)
}

// ScheduleConflict reports an overlapping reservation. conflicts is rendered as the response details.
func ScheduleConflict(msg string, conflicts any) error {
	f := newFailure(http.StatusConflict, ReasonScheduleConflict, msg)
	f.Details = conflicts

	return f
}

// InvalidState rejects an operation the entity's current status does not allow.
func InvalidState(msg string) error {
	return newFailure(http.StatusUnprocessableEntity, ReasonInvalidState, msg)
}

// InvalidTransition rejects a status change missing from the transition table.
func InvalidTransition(msg string) error {
	return newFailure(http.StatusUnprocessableEntity, ReasonInvalidTransition, msg)
}

// InvalidOperation rejects an operation that does not apply to the target, e.g. unblocking a customer booking.
func InvalidOperation(msg string) error {
	return newFailure(http.StatusUnprocessableEntity, ReasonInvalidOperation, msg)
}

func as(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}

	return nil, false
}

// GetCode returns the HTTP code of err, 500 for anything that is not a Failure.
func GetCode(err error) int {
	if f, ok := as(err); ok {
		return f.Code
	}

	return http.StatusInternalServerError
}

func GetReason(err error) string {
	if f, ok := as(err); ok {
		return f.Reason
	}

	return ""
}

func GetDetails(err error) any {
	if f, ok := as(err); ok {
		return f.Details
	}

	return nil
}
