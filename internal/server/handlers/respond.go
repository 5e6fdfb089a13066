// Package handlers contains the HTTP handlers of the users, tokens and checks resources
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/iudanet/checkkeeper/internal/server/service"
	"github.com/iudanet/checkkeeper/pkg/api"
)

// maxBodyBytes ограничивает размер тела запроса
const maxBodyBytes = 64 << 10

// responder содержит общие для всех handlers методы ответа
type responder struct {
	logger *slog.Logger
}

// sendJSON отправляет JSON ответ
func (h responder) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h responder) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	h.sendJSON(w, resp, statusCode)
}

// sendOK отправляет 200 с пустым объектом
func (h responder) sendOK(w http.ResponseWriter) {
	h.sendJSON(w, api.EmptyResponse{}, http.StatusOK)
}

// sendServiceError переводит ошибку сервиса в HTTP ответ.
// Текст внутренних ошибок клиенту не отдаётся, только в лог.
func (h responder) sendServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, op+" failed", slog.Any("error", err))
		h.sendError(w, "internal server error", status)
		return
	}

	h.logger.WarnContext(ctx, op+" rejected",
		slog.Int("status", status),
		slog.String("reason", err.Error()))
	h.sendError(w, err.Error(), status)
}

// statusFor сопоставляет ошибкам сервисов HTTP статусы
func statusFor(err error) int {
	switch {
	// Незавершённые двухшаговые операции: ошибка сервера, даже если причина NotFound
	case errors.Is(err, service.ErrOwnerLink),
		errors.Is(err, service.ErrLinkRemoval),
		errors.Is(err, service.ErrPartialCascade),
		errors.Is(err, service.ErrHash),
		errors.Is(err, service.ErrStore):
		return http.StatusInternalServerError
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrAlreadyExists),
		errors.Is(err, service.ErrQuotaExceeded),
		errors.Is(err, service.ErrAlreadyExpired),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrPasswordMismatch):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody разбирает JSON тело запроса. Пустое или нечитаемое тело
// даёт нулевое значение: такой запрос затем отклонит валидация.
func decodeBody[T any](r *http.Request) T {
	var v T
	if r.Body == nil {
		return v
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&v); err != nil {
		var zero T
		return zero
	}
	return v
}
