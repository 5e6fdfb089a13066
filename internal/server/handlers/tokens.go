package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/checkkeeper/internal/models"
	"github.com/iudanet/checkkeeper/internal/server/service"
	"github.com/iudanet/checkkeeper/pkg/api"
)

// TokenService is the session logic behind /tokens
type TokenService interface {
	Issue(ctx context.Context, in service.LoginInput) (*models.Token, error)
	Fetch(ctx context.Context, id string) (*models.Token, error)
	Extend(ctx context.Context, id string) (*models.Token, error)
	Revoke(ctx context.Context, id string) error
}

// TokenHandler обрабатывает запросы к /tokens
type TokenHandler struct {
	responder
	tokens TokenService
}

// NewTokenHandler создает новый handler токенов
func NewTokenHandler(logger *slog.Logger, tokens TokenService) *TokenHandler {
	return &TokenHandler{
		responder: responder{logger: logger},
		tokens:    tokens,
	}
}

// Create обрабатывает POST /tokens
// Обмен телефона и пароля на токен
func (h *TokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := decodeBody[api.CreateTokenRequest](r)

	token, err := h.tokens.Issue(ctx, service.LoginInput{Phone: req.Phone, Password: req.Password})
	if err != nil {
		h.sendServiceError(ctx, w, "issue token", err)
		return
	}

	h.logger.InfoContext(ctx, "token issued", slog.String("phone", token.Phone))
	h.sendJSON(w, tokenResponse(token), http.StatusOK)
}

// Get обрабатывает GET /tokens?id=
func (h *TokenHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, err := h.tokens.Fetch(ctx, r.URL.Query().Get("id"))
	if err != nil {
		h.sendServiceError(ctx, w, "get token", err)
		return
	}

	h.sendJSON(w, tokenResponse(token), http.StatusOK)
}

// Update обрабатывает PUT /tokens
// Продление действующего токена на TTL; тело должно содержать extend: true
func (h *TokenHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := decodeBody[api.ExtendTokenRequest](r)

	if !req.Extend {
		h.sendError(w, "extend must be true", http.StatusBadRequest)
		return
	}

	token, err := h.tokens.Extend(ctx, req.ID)
	if err != nil {
		h.sendServiceError(ctx, w, "extend token", err)
		return
	}

	h.logger.InfoContext(ctx, "token extended", slog.String("phone", token.Phone))
	h.sendOK(w)
}

// Delete обрабатывает DELETE /tokens?id=
// Выход: токен удаляется независимо от срока действия
func (h *TokenHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.tokens.Revoke(ctx, r.URL.Query().Get("id")); err != nil {
		h.sendServiceError(ctx, w, "revoke token", err)
		return
	}

	h.sendOK(w)
}

func tokenResponse(token *models.Token) api.TokenResponse {
	return api.TokenResponse{
		ID:      token.ID,
		Phone:   token.Phone,
		Expires: token.Expires,
	}
}
