package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/checkkeeper/internal/models"
	"github.com/iudanet/checkkeeper/internal/server/middleware"
	"github.com/iudanet/checkkeeper/internal/server/service"
	"github.com/iudanet/checkkeeper/pkg/api"
)

// AccountService is the account logic behind /users
type AccountService interface {
	Register(ctx context.Context, in service.RegisterInput) error
	GetProfile(ctx context.Context, phone, token string) (*models.UserView, error)
	UpdateProfile(ctx context.Context, phone, token string, upd service.ProfileUpdate) error
	DeleteAccount(ctx context.Context, phone, token string) error
}

// UserHandler обрабатывает запросы к /users
type UserHandler struct {
	responder
	accounts AccountService
}

// NewUserHandler создает новый handler пользователей
func NewUserHandler(logger *slog.Logger, accounts AccountService) *UserHandler {
	return &UserHandler{
		responder: responder{logger: logger},
		accounts:  accounts,
	}
}

// Create обрабатывает POST /users
// Регистрация нового пользователя
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := decodeBody[api.CreateUserRequest](r)

	err := h.accounts.Register(ctx, service.RegisterInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Password:     req.Password,
		TOSAgreement: req.TOSAgreement,
	})
	if err != nil {
		h.sendServiceError(ctx, w, "register user", err)
		return
	}

	h.logger.InfoContext(ctx, "user registered", slog.String("phone", req.Phone))
	h.sendOK(w)
}

// Get обрабатывает GET /users?phone=
// Профиль пользователя без хеша пароля
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	phone := r.URL.Query().Get("phone")

	view, err := h.accounts.GetProfile(ctx, phone, middleware.TokenFromContext(ctx))
	if err != nil {
		h.sendServiceError(ctx, w, "get user", err)
		return
	}

	h.sendJSON(w, api.UserResponse{
		FirstName:    view.FirstName,
		LastName:     view.LastName,
		Phone:        view.Phone,
		Checks:       view.Checks,
		TOSAgreement: view.TOSAgreement,
	}, http.StatusOK)
}

// Update обрабатывает PUT /users
// Частичное обновление профиля
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := decodeBody[api.UpdateUserRequest](r)

	err := h.accounts.UpdateProfile(ctx, req.Phone, middleware.TokenFromContext(ctx), service.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		h.sendServiceError(ctx, w, "update user", err)
		return
	}

	h.logger.InfoContext(ctx, "user updated", slog.String("phone", req.Phone))
	h.sendOK(w)
}

// Delete обрабатывает DELETE /users?phone=
// Удаление пользователя вместе с его проверками
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	phone := r.URL.Query().Get("phone")

	if err := h.accounts.DeleteAccount(ctx, phone, middleware.TokenFromContext(ctx)); err != nil {
		h.sendServiceError(ctx, w, "delete user", err)
		return
	}

	h.logger.InfoContext(ctx, "user deleted", slog.String("phone", phone))
	h.sendOK(w)
}
