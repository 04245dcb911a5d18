package response_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental/shared/constant"
	"rental/shared/failure"
	"rental/transport/http/response"
)

func TestWithError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage string
		wantReason  string
		wantDetails bool
	}{
		{
			name:        "schedule conflict carries details",
			err:         failure.ScheduleConflict("vehicle unit is not available for the selected dates", []string{"bk-1"}),
			wantCode:    http.StatusConflict,
			wantMessage: "vehicle unit is not available for the selected dates",
			wantReason:  failure.ReasonScheduleConflict,
			wantDetails: true,
		},
		{
			name:        "not found",
			err:         failure.NotFound("booking not found"),
			wantCode:    http.StatusNotFound,
			wantMessage: "booking not found",
			wantReason:  failure.ReasonNotFound,
		},
		{
			name:        "unexpected errors are masked",
			err:         errors.New("pq: connection refused"),
			wantCode:    http.StatusInternalServerError,
			wantMessage: constant.ResponseErrorInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()

			response.WithError(recorder, tt.err)

			assert.Equal(t, tt.wantCode, recorder.Code)
			assert.Equal(t, constant.ContentTypeJSON, recorder.Header().Get(constant.RequestHeaderContentType))

			var body struct {
				Error   string `json:"error"`
				Reason  string `json:"reason"`
				Details any    `json:"details"`
			}

			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMessage, body.Error)
			assert.Equal(t, tt.wantReason, body.Reason)
			assert.Equal(t, tt.wantDetails, body.Details != nil)
		})
	}
}

func TestWithFile(t *testing.T) {
	recorder := httptest.NewRecorder()

	response.WithFile(recorder, "blocked-schedules.xlsx", constant.ContentTypeXLSX, []byte("PK"))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, constant.ContentTypeXLSX, recorder.Header().Get(constant.RequestHeaderContentType))
	assert.Equal(t, `attachment; filename="blocked-schedules.xlsx"`, recorder.Header().Get(constant.RequestHeaderContentDisposition))
	assert.Equal(t, "PK", recorder.Body.String())
}
