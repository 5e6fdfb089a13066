package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/checkkeeper/internal/models"
	"github.com/iudanet/checkkeeper/internal/server/storage"
)

func TestTokenService_Issue(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, testPhone)

	token, err := env.tokens.Issue(context.Background(), LoginInput{Phone: testPhone, Password: testPassword})
	require.NoError(t, err)

	assert.Len(t, token.ID, 20)
	assert.Equal(t, testPhone, token.Phone)
	assert.Equal(t, env.clock.Now().Add(time.Hour).UnixMilli(), token.Expires)

	// Токен сохранён в хранилище
	var stored models.Token
	require.NoError(t, env.store.Read(context.Background(), storage.CollectionTokens, token.ID, &stored))
	assert.Equal(t, *token, stored)

	assert.True(t, env.tokens.Verify(context.Background(), token.ID, testPhone))
}

func TestTokenService_Issue_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, testPhone)

	tests := []struct {
		name    string
		wantErr error
		in      LoginInput
	}{
		{
			name:    "unknown user",
			in:      LoginInput{Phone: otherPhone, Password: testPassword},
			wantErr: ErrUserNotFound,
		},
		{
			name:    "wrong password",
			in:      LoginInput{Phone: testPhone, Password: "wrongpassword"},
			wantErr: ErrPasswordMismatch,
		},
		{
			name:    "short phone",
			in:      LoginInput{Phone: "555", Password: testPassword},
			wantErr: ErrValidation,
		},
		{
			name:    "missing password",
			in:      LoginInput{Phone: testPhone},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := env.tokens.Issue(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, token)
		})
	}
}

func TestTokenService_Issue_RetriesOnCollision(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, testPhone)

	const taken = "takentakentakentaken"
	const fresh = "freshfreshfreshfresh"
	require.NoError(t, env.store.Create(context.Background(), storage.CollectionTokens, taken,
		&models.Token{ID: taken, Phone: otherPhone, Expires: 1}))

	ids := []string{taken, fresh}
	env.tokens.newID = func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}

	token, err := env.tokens.Issue(context.Background(), LoginInput{Phone: testPhone, Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, fresh, token.ID)

	// Чужой токен не перезаписан
	var other models.Token
	require.NoError(t, env.store.Read(context.Background(), storage.CollectionTokens, taken, &other))
	assert.Equal(t, otherPhone, other.Phone)
}

func TestTokenService_Issue_GivesUpAfterRepeatedCollisions(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, testPhone)

	const taken = "takentakentakentaken"
	require.NoError(t, env.store.Create(context.Background(), storage.CollectionTokens, taken,
		&models.Token{ID: taken, Phone: otherPhone, Expires: 1}))
	env.tokens.newID = func() (string, error) { return taken, nil }

	_, err := env.tokens.Issue(context.Background(), LoginInput{Phone: testPhone, Password: testPassword})
	assert.ErrorIs(t, err, ErrStore)
}

func TestTokenService_Verify(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, testPhone)
	token := env.login(t, testPhone)
	ctx := context.Background()

	assert.True(t, env.tokens.Verify(ctx, token.ID, testPhone))
	assert.False(t, env.tokens.Verify(ctx, token.ID, otherPhone), "token of another subject")
	assert.False(t, env.tokens.Verify(ctx, "nosuchtokennosuchtok", testPhone), "unknown token")
	assert.False(t, env.tokens.Verify(ctx, "short", testPhone), "malformed token")
	assert.False(t, env.tokens.Verify(ctx, "", testPhone), "missing token")
	assert.False(t, env.tokens.Verify(ctx, token.ID, ""), "missing phone")

	// Ошибка хранилища не всплывает, а даёт false
	env.store.setFail(failOp("read", storage.CollectionTokens))
	assert.False(t, env.tokens.Verify(ctx, token.ID, testPhone))
	env.store.setFail(nil)

	env.clock.Advance(time.Hour)
	assert.False(t, env.tokens.Verify(ctx, token.ID, testPhone), "expired exactly at expiry")
}

func TestTokenService_Fetch_ReturnsExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, testPhone)
	token := env.login(t, testPhone)

	env.clock.Advance(2 * time.Hour)

	got, err := env.tokens.Fetch(context.Background(), token.ID)
	require.NoError(t, err)
	assert.Equal(t, *token, *got)

	_, err = env.tokens.Fetch(context.Background(), "nosuchtokennosuchtok")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.tokens.Fetch(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTokenService_Extend(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, testPhone)
	token := env.login(t, testPhone)
	ctx := context.Background()

	env.clock.Advance(30 * time.Minute)

	extended, err := env.tokens.Extend(ctx, token.ID)
	require.NoError(t, err)
	assert.Equal(t, env.clock.Now().Add(time.Hour).UnixMilli(), extended.Expires)

	stored, err := env.tokens.Fetch(ctx, token.ID)
	require.NoError(t, err)
	assert.Equal(t, extended.Expires, stored.Expires)

	// Продлённый токен действителен после исходного срока
	env.clock.Advance(45 * time.Minute)
	assert.True(t, env.tokens.Verify(ctx, token.ID, testPhone))
}

func TestTokenService_Extend_Expired(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, testPhone)
	token := env.login(t, testPhone)
	ctx := context.Background()

	env.clock.Advance(time.Hour + time.Millisecond)

	_, err := env.tokens.Extend(ctx, token.ID)
	assert.ErrorIs(t, err, ErrAlreadyExpired)

	stored, err := env.tokens.Fetch(ctx, token.ID)
	require.NoError(t, err)
	assert.Equal(t, token.Expires, stored.Expires, "expired token must not be mutated")

	_, err = env.tokens.Extend(ctx, "nosuchtokennosuchtok")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenService_ZeroTTLFallsBackToDefault(t *testing.T) {
	svc := NewTokenService(nil, nil, 0, discardLogger())
	assert.Equal(t, DefaultTokenTTL, svc.ttl)
}

func TestTokenService_Revoke(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, testPhone)
	token := env.login(t, testPhone)
	ctx := context.Background()

	require.NoError(t, env.tokens.Revoke(ctx, token.ID))

	_, err := env.tokens.Fetch(ctx, token.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, env.tokens.Verify(ctx, token.ID, testPhone))

	assert.ErrorIs(t, env.tokens.Revoke(ctx, token.ID), ErrNotFound)
	assert.ErrorIs(t, env.tokens.Revoke(ctx, "x"), ErrValidation)
}

func TestTokenService_Revoke_Expired(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, testPhone)
	token := env.login(t, testPhone)

	env.clock.Advance(3 * time.Hour)
	require.NoError(t, env.tokens.Revoke(context.Background(), token.ID))
}
