package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iudanet/checkkeeper/internal/crypto"
	"github.com/iudanet/checkkeeper/internal/models"
	"github.com/iudanet/checkkeeper/internal/server/storage"
	"github.com/iudanet/checkkeeper/internal/validation"
)

// DefaultTokenTTL is the lifetime of an issued or extended token
const DefaultTokenTTL = time.Hour

// createAttempts bounds retries when a generated id collides with an existing key
const createAttempts = 3

// PasswordHasher hashes and verifies passwords with a process-wide secret
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenVerifier answers whether a token currently authorizes a phone
type TokenVerifier interface {
	Verify(ctx context.Context, tokenID, phone string) bool
}

// LoginInput is the credentials pair exchanged for a token
type LoginInput struct {
	Phone    string `json:"phone" validate:"len=10"`
	Password string `json:"password" validate:"required"`
}

// TokenService issues, reads, extends, revokes and verifies session tokens.
// It holds no state: every call round-trips through the store.
type TokenService struct {
	store  storage.Store
	hasher PasswordHasher
	logger *slog.Logger
	now    func() time.Time
	newID  func() (string, error)
	ttl    time.Duration
}

// NewTokenService creates a TokenService. A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenService(store storage.Store, hasher PasswordHasher, ttl time.Duration, logger *slog.Logger) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		store:  store,
		hasher: hasher,
		logger: logger,
		now:    time.Now,
		newID:  func() (string, error) { return crypto.GenerateID(crypto.IDLength) },
		ttl:    ttl,
	}
}

// Issue exchanges a phone and password for a fresh token
func (s *TokenService) Issue(ctx context.Context, in LoginInput) (*models.Token, error) {
	in.Phone = strings.TrimSpace(in.Phone)
	if err := validation.Struct(in); err != nil {
		return nil, invalidErr(err)
	}

	var user models.User
	if err := s.store.Read(ctx, storage.CollectionUsers, in.Phone, &user); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeErr("read user", err)
	}

	if !s.hasher.Verify(in.Password, user.HashedPassword) {
		return nil, ErrPasswordMismatch
	}

	token := &models.Token{
		Phone:   user.Phone,
		Expires: s.now().Add(s.ttl).UnixMilli(),
	}

	// Коллизия 20-символьного id маловероятна, но Create её не перезапишет
	for attempt := 1; ; attempt++ {
		id, err := s.newID()
		if err != nil {
			return nil, fmt.Errorf("generate token id: %w", err)
		}
		token.ID = id

		err = s.store.Create(ctx, storage.CollectionTokens, token.ID, token)
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrAlreadyExists) || attempt == createAttempts {
			return nil, storeErr("create token", err)
		}
		s.logger.WarnContext(ctx, "token id collision, retrying", slog.Int("attempt", attempt))
	}

	return token, nil
}

// Fetch returns the token stored under id, expired or not
func (s *TokenService) Fetch(ctx context.Context, id string) (*models.Token, error) {
	id = strings.TrimSpace(id)
	if err := validation.ID(id); err != nil {
		return nil, invalidErr(err)
	}

	var token models.Token
	if err := s.store.Read(ctx, storage.CollectionTokens, id, &token); err != nil {
		return nil, storeErr("read token", err)
	}

	return &token, nil
}

// Extend pushes the expiry of an active token to now + TTL.
// An expired token is left untouched and ErrAlreadyExpired is returned.
func (s *TokenService) Extend(ctx context.Context, id string) (*models.Token, error) {
	token, err := s.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !token.ActiveAt(now) {
		return nil, ErrAlreadyExpired
	}

	token.Expires = now.Add(s.ttl).UnixMilli()
	if err := s.store.Update(ctx, storage.CollectionTokens, token.ID, token); err != nil {
		return nil, storeErr("update token", err)
	}

	return token, nil
}

// Revoke deletes the token regardless of its expiry
func (s *TokenService) Revoke(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := validation.ID(id); err != nil {
		return invalidErr(err)
	}

	if err := s.store.Delete(ctx, storage.CollectionTokens, id); err != nil {
		return storeErr("delete token", err)
	}

	return nil
}

// Verify reports whether the token exists, belongs to phone and has not
// expired. Any lookup failure yields false.
func (s *TokenService) Verify(ctx context.Context, tokenID, phone string) bool {
	if tokenID == "" || phone == "" {
		return false
	}

	token, err := s.Fetch(ctx, tokenID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrValidation) {
			s.logger.WarnContext(ctx, "token lookup failed", slog.Any("error", err))
		}
		return false
	}

	return token.Phone == phone && token.ActiveAt(s.now())
}
