package failure_test

import (
	"errors"
	"fmt"
	"net/http"
	"rental/shared/failure"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	conflicts := []string{"b-1"}

	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantReason string
		wantMsg    string
	}{
		{name: "bad request", err: failure.BadRequest(errors.New("unit_id is required")), wantCode: http.StatusBadRequest, wantReason: failure.ReasonValidation, wantMsg: "unit_id is required"},
		{name: "bad request from string", err: failure.BadRequestFromString("bad dates"), wantCode: http.StatusBadRequest, wantReason: failure.ReasonValidation, wantMsg: "bad dates"},
		{name: "unauthorized", err: failure.Unauthorized("Token has expired"), wantCode: http.StatusUnauthorized, wantReason: failure.ReasonUnauthorized, wantMsg: "Token has expired"},
		{name: "forbidden", err: failure.ForbiddenError, wantCode: http.StatusForbidden, wantReason: failure.ReasonForbidden, wantMsg: "You don't have the required permissions"},
		{name: "not found", err: failure.NotFound("booking not found"), wantCode: http.StatusNotFound, wantReason: failure.ReasonNotFound, wantMsg: "booking not found"},
		{name: "schedule conflict", err: failure.ScheduleConflict("taken", conflicts), wantCode: http.StatusConflict, wantReason: failure.ReasonScheduleConflict, wantMsg: "taken"},
		{name: "invalid state", err: failure.InvalidState("already done"), wantCode: http.StatusUnprocessableEntity, wantReason: failure.ReasonInvalidState, wantMsg: "already done"},
		{name: "invalid transition", err: failure.InvalidTransition("pending to done"), wantCode: http.StatusUnprocessableEntity, wantReason: failure.ReasonInvalidTransition, wantMsg: "pending to done"},
		{name: "invalid operation", err: failure.InvalidOperation("not a block"), wantCode: http.StatusUnprocessableEntity, wantReason: failure.ReasonInvalidOperation, wantMsg: "not a block"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, failure.GetCode(tt.err))
			assert.Equal(t, tt.wantReason, failure.GetReason(tt.err))
			assert.EqualError(t, tt.err, tt.wantMsg)
		})
	}

	assert.Equal(t, conflicts, failure.GetDetails(failure.ScheduleConflict("taken", conflicts)))
}

func TestBadRequestNil(t *testing.T) {
	assert.NoError(t, failure.BadRequest(nil))
}

func TestWrappedFailure(t *testing.T) {
	err := fmt.Errorf("reserve: %w", failure.InvalidState("booking was changed by another request"))

	assert.Equal(t, http.StatusUnprocessableEntity, failure.GetCode(err))
	assert.Equal(t, failure.ReasonInvalidState, failure.GetReason(err))
}

func TestPlainError(t *testing.T) {
	err := errors.New("connection refused")

	assert.Equal(t, http.StatusInternalServerError, failure.GetCode(err))
	assert.Empty(t, failure.GetReason(err))
	assert.Nil(t, failure.GetDetails(err))
}
