package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/checkkeeper/internal/models"
	"github.com/iudanet/checkkeeper/internal/server/middleware"
	"github.com/iudanet/checkkeeper/internal/server/service"
	"github.com/iudanet/checkkeeper/pkg/api"
)

// CheckService is the check ownership logic behind /checks
type CheckService interface {
	Create(ctx context.Context, token, ownerPhone string, spec service.CheckSpec) (*models.Check, error)
	Get(ctx context.Context, id, token string) (*models.Check, error)
	Update(ctx context.Context, id, token string, upd service.CheckUpdate) error
	Delete(ctx context.Context, id, token string) error
}

// TokenFetcher resolves a token id to its record
type TokenFetcher interface {
	Fetch(ctx context.Context, id string) (*models.Token, error)
}

// CheckHandler обрабатывает запросы к /checks
type CheckHandler struct {
	responder
	checks CheckService
	tokens TokenFetcher
}

// NewCheckHandler создает новый handler проверок
func NewCheckHandler(logger *slog.Logger, checks CheckService, tokens TokenFetcher) *CheckHandler {
	return &CheckHandler{
		responder: responder{logger: logger},
		checks:    checks,
		tokens:    tokens,
	}
}

// Create обрабатывает POST /checks
// Владелец проверки определяется по токену из заголовка
func (h *CheckHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := decodeBody[api.CreateCheckRequest](r)
	tokenID := middleware.TokenFromContext(ctx)

	if tokenID == "" {
		h.sendServiceError(ctx, w, "create check", service.ErrUnauthorized)
		return
	}

	token, err := h.tokens.Fetch(ctx, tokenID)
	if err != nil {
		// Неизвестный или некорректный токен означает отказ в доступе
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrValidation) {
			err = service.ErrUnauthorized
		}
		h.sendServiceError(ctx, w, "create check", err)
		return
	}

	check, err := h.checks.Create(ctx, tokenID, token.Phone, service.CheckSpec{
		Protocol:       req.Protocol,
		URL:            req.URL,
		Method:         req.Method,
		SuccessCodes:   req.SuccessCodes,
		TimeoutSeconds: req.TimeoutSeconds,
	})
	if err != nil {
		h.sendServiceError(ctx, w, "create check", err)
		return
	}

	h.logger.InfoContext(ctx, "check created",
		slog.String("check_id", check.ID),
		slog.String("phone", check.UserPhone))
	h.sendJSON(w, checkResponse(check), http.StatusOK)
}

// Get обрабатывает GET /checks?id=
func (h *CheckHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	check, err := h.checks.Get(ctx, r.URL.Query().Get("id"), middleware.TokenFromContext(ctx))
	if err != nil {
		h.sendServiceError(ctx, w, "get check", err)
		return
	}

	h.sendJSON(w, checkResponse(check), http.StatusOK)
}

// Update обрабатывает PUT /checks
// Частичное обновление проверки
func (h *CheckHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := decodeBody[api.UpdateCheckRequest](r)

	err := h.checks.Update(ctx, req.ID, middleware.TokenFromContext(ctx), service.CheckUpdate{
		Protocol:       req.Protocol,
		URL:            req.URL,
		Method:         req.Method,
		SuccessCodes:   req.SuccessCodes,
		TimeoutSeconds: req.TimeoutSeconds,
	})
	if err != nil {
		h.sendServiceError(ctx, w, "update check", err)
		return
	}

	h.logger.InfoContext(ctx, "check updated", slog.String("check_id", req.ID))
	h.sendOK(w)
}

// Delete обрабатывает DELETE /checks?id=
// Удаление проверки и её id из списка владельца
func (h *CheckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.URL.Query().Get("id")

	if err := h.checks.Delete(ctx, id, middleware.TokenFromContext(ctx)); err != nil {
		h.sendServiceError(ctx, w, "delete check", err)
		return
	}

	h.logger.InfoContext(ctx, "check deleted", slog.String("check_id", id))
	h.sendOK(w)
}

func checkResponse(check *models.Check) api.CheckResponse {
	return api.CheckResponse{
		ID:             check.ID,
		UserPhone:      check.UserPhone,
		Protocol:       check.Protocol,
		URL:            check.URL,
		Method:         check.Method,
		SuccessCodes:   check.SuccessCodes,
		TimeoutSeconds: check.TimeoutSeconds,
	}
}
