package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/checkkeeper/internal/models"
	"github.com/iudanet/checkkeeper/internal/server/service"
	"github.com/iudanet/checkkeeper/pkg/api"
)

const checkBody = `{"protocol":"https","url":"example.com","method":"get","successCodes":[200],"timeoutSeconds":3}`

func TestCheckHandler_Create(t *testing.T) {
	var gotToken, gotOwner string
	var gotSpec service.CheckSpec
	checks := &mockChecks{create: func(token, owner string, spec service.CheckSpec) (*models.Check, error) {
		gotToken, gotOwner, gotSpec = token, owner, spec
		return &models.Check{
			ID:             testCheckID,
			UserPhone:      owner,
			Protocol:       spec.Protocol,
			URL:            spec.URL,
			Method:         spec.Method,
			SuccessCodes:   spec.SuccessCodes,
			TimeoutSeconds: spec.TimeoutSeconds,
		}, nil
	}}
	tokens := &mockTokens{fetch: func(string) (*models.Token, error) { return testToken(), nil }}
	h := NewCheckHandler(setupTestLogger(), checks, tokens)

	w := serve(h.Create, newRequest(http.MethodPost, "/checks", checkBody, testTokenID))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testTokenID, gotToken)
	assert.Equal(t, testPhone, gotOwner, "owner comes from the token")
	assert.Equal(t, service.CheckSpec{
		Protocol:       "https",
		URL:            "example.com",
		Method:         "get",
		SuccessCodes:   []int{200},
		TimeoutSeconds: 3,
	}, gotSpec)

	var resp api.CheckResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, testCheckID, resp.ID)
	assert.Equal(t, testPhone, resp.UserPhone)
}

func TestCheckHandler_Create_TokenProblems(t *testing.T) {
	tests := []struct {
		fetchErr   error
		name       string
		token      string
		wantStatus int
	}{
		{name: "no token", token: "", wantStatus: http.StatusForbidden},
		{name: "unknown token", token: testTokenID, fetchErr: service.ErrNotFound, wantStatus: http.StatusForbidden},
		{name: "malformed token", token: "bad", fetchErr: service.ErrValidation, wantStatus: http.StatusForbidden},
		{name: "store failure", token: testTokenID, fetchErr: service.ErrStore, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checks := &mockChecks{create: func(string, string, service.CheckSpec) (*models.Check, error) {
				t.Fatal("check must not be created")
				return nil, nil
			}}
			tokens := &mockTokens{fetch: func(string) (*models.Token, error) { return nil, tt.fetchErr }}
			h := NewCheckHandler(setupTestLogger(), checks, tokens)

			w := serve(h.Create, newRequest(http.MethodPost, "/checks", checkBody, tt.token))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestCheckHandler_Create_ServiceErrors(t *testing.T) {
	tests := []struct {
		err        error
		name       string
		wantStatus int
	}{
		{name: "quota", err: service.ErrQuotaExceeded, wantStatus: http.StatusBadRequest},
		{name: "expired token", err: service.ErrUnauthorized, wantStatus: http.StatusForbidden},
		{name: "orphaned check", err: errors.Join(service.ErrOwnerLink, service.ErrStore), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checks := &mockChecks{create: func(string, string, service.CheckSpec) (*models.Check, error) { return nil, tt.err }}
			tokens := &mockTokens{fetch: func(string) (*models.Token, error) { return testToken(), nil }}
			h := NewCheckHandler(setupTestLogger(), checks, tokens)

			w := serve(h.Create, newRequest(http.MethodPost, "/checks", checkBody, testTokenID))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestCheckHandler_Get(t *testing.T) {
	checks := &mockChecks{get: func(id, token string) (*models.Check, error) {
		if token != testTokenID {
			return nil, service.ErrUnauthorized
		}
		return &models.Check{ID: id, UserPhone: testPhone, SuccessCodes: []int{200}}, nil
	}}
	h := NewCheckHandler(setupTestLogger(), checks, &mockTokens{})

	w := serve(h.Get, newRequest(http.MethodGet, "/checks?id="+testCheckID, "", testTokenID))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), testCheckID)

	w = serve(h.Get, newRequest(http.MethodGet, "/checks?id="+testCheckID, "", "foreigntokenforeignt"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCheckHandler_Update(t *testing.T) {
	var gotID string
	var gotUpd service.CheckUpdate
	checks := &mockChecks{update: func(id, _ string, upd service.CheckUpdate) error {
		gotID, gotUpd = id, upd
		return nil
	}}
	h := NewCheckHandler(setupTestLogger(), checks, &mockTokens{})

	body := `{"id":"checkcheckcheck00001","timeoutSeconds":5,"successCodes":[200,204]}`
	w := serve(h.Update, newRequest(http.MethodPut, "/checks", body, testTokenID))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testCheckID, gotID)
	require.NotNil(t, gotUpd.TimeoutSeconds)
	assert.Equal(t, 5, *gotUpd.TimeoutSeconds)
	assert.Equal(t, []int{200, 204}, gotUpd.SuccessCodes)
	assert.Nil(t, gotUpd.Protocol)
	assert.Nil(t, gotUpd.URL)
	assert.Nil(t, gotUpd.Method)
}

func TestCheckHandler_Delete(t *testing.T) {
	tests := []struct {
		err        error
		name       string
		wantStatus int
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "not found", err: service.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "link removal", err: service.ErrLinkRemoval, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checks := &mockChecks{delete: func(id, _ string) error {
				assert.Equal(t, testCheckID, id)
				return tt.err
			}}
			h := NewCheckHandler(setupTestLogger(), checks, &mockTokens{})

			w := serve(h.Delete, newRequest(http.MethodDelete, "/checks?id="+testCheckID, "", testTokenID))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
