package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"rental/shared/constant"
	"rental/shared/failure"
	"rental/shared/logger"

	"github.com/rs/zerolog/log"
)

type Data[T any] struct {
	Data *T `json:"data,omitempty"`
}

type Error struct {
	Error   *string `json:"error,omitempty"`
	Reason  string  `json:"reason,omitempty"`
	Details any     `json:"details,omitempty"`
}

type Message struct {
	Message *string `json:"message,omitempty"`
}

func WithMessage(writer http.ResponseWriter, code int, message string) {
	writeJSON(writer, code, Message{Message: &message})
}

// WithJSON wraps payload in the data envelope.
func WithJSON(writer http.ResponseWriter, code int, payload any) {
	writeJSON(writer, code, Data[any]{Data: &payload})
}

// WithError renders err with its reason and details. Anything that is not a client failure is
// logged and answered with a generic message.
func WithError(writer http.ResponseWriter, err error) {
	code := failure.GetCode(err)
	message := err.Error()

	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Int("code", code).Msg("request failed")

		message = constant.ResponseErrorInternal
	}

	writeJSON(writer, code, Error{Error: &message, Reason: failure.GetReason(err), Details: failure.GetDetails(err)})
}

// WithFile streams a download with the given content type.
func WithFile(writer http.ResponseWriter, fileName, contentType string, content []byte) {
	writer.Header().Set(constant.RequestHeaderContentType, contentType)
	writer.Header().Set(constant.RequestHeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
	writer.WriteHeader(http.StatusOK)

	if _, err := writer.Write(content); err != nil {
		logger.ErrorWithStack(err)
	}
}

func WithRequestLimitExceeded(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusTooManyRequests, constant.ResponseErrorRequestLimitExceeded)
}

// WithPreparingShutdown answers health checks during the shutdown grace period.
func WithPreparingShutdown(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorPrepareShutdown)
}

func WithUnhealthy(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorUnhealthy)
}

func writeJSON(writer http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.ErrorWithStack(err)
		writer.WriteHeader(http.StatusInternalServerError)

		return
	}

	writer.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	writer.WriteHeader(code)

	if _, err = writer.Write(body); err != nil {
		logger.ErrorWithStack(err)
	}
}
