package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/checkkeeper/internal/models"
	"github.com/iudanet/checkkeeper/internal/server/middleware"
	"github.com/iudanet/checkkeeper/internal/server/service"
	"github.com/iudanet/checkkeeper/pkg/api"
)

const (
	testPhone   = "5551234567"
	testTokenID = "abcdefghij0123456789"
	testCheckID = "checkcheckcheck00001"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockAccounts is a mock implementation of AccountService for testing
type mockAccounts struct {
	register      func(in service.RegisterInput) error
	getProfile    func(phone, token string) (*models.UserView, error)
	updateProfile func(phone, token string, upd service.ProfileUpdate) error
	deleteAccount func(phone, token string) error
}

func (m *mockAccounts) Register(_ context.Context, in service.RegisterInput) error {
	return m.register(in)
}

func (m *mockAccounts) GetProfile(_ context.Context, phone, token string) (*models.UserView, error) {
	return m.getProfile(phone, token)
}

func (m *mockAccounts) UpdateProfile(_ context.Context, phone, token string, upd service.ProfileUpdate) error {
	return m.updateProfile(phone, token, upd)
}

func (m *mockAccounts) DeleteAccount(_ context.Context, phone, token string) error {
	return m.deleteAccount(phone, token)
}

// mockTokens is a mock implementation of TokenService for testing
type mockTokens struct {
	issue  func(in service.LoginInput) (*models.Token, error)
	fetch  func(id string) (*models.Token, error)
	extend func(id string) (*models.Token, error)
	revoke func(id string) error
}

func (m *mockTokens) Issue(_ context.Context, in service.LoginInput) (*models.Token, error) {
	return m.issue(in)
}

func (m *mockTokens) Fetch(_ context.Context, id string) (*models.Token, error) {
	return m.fetch(id)
}

func (m *mockTokens) Extend(_ context.Context, id string) (*models.Token, error) {
	return m.extend(id)
}

func (m *mockTokens) Revoke(_ context.Context, id string) error {
	return m.revoke(id)
}

// mockChecks is a mock implementation of CheckService for testing
type mockChecks struct {
	create func(token, ownerPhone string, spec service.CheckSpec) (*models.Check, error)
	get    func(id, token string) (*models.Check, error)
	update func(id, token string, upd service.CheckUpdate) error
	delete func(id, token string) error
}

func (m *mockChecks) Create(_ context.Context, token, ownerPhone string, spec service.CheckSpec) (*models.Check, error) {
	return m.create(token, ownerPhone, spec)
}

func (m *mockChecks) Get(_ context.Context, id, token string) (*models.Check, error) {
	return m.get(id, token)
}

func (m *mockChecks) Update(_ context.Context, id, token string, upd service.CheckUpdate) error {
	return m.update(id, token, upd)
}

func (m *mockChecks) Delete(_ context.Context, id, token string) error {
	return m.delete(id, token)
}

// newRequest builds a request passed through TokenMiddleware
func newRequest(method, target, body, token string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}
	return req
}

// serve runs h behind TokenMiddleware and returns the recorder
func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	middleware.TokenMiddleware(h).ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}
