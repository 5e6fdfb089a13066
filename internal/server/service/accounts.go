package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iudanet/checkkeeper/internal/models"
	"github.com/iudanet/checkkeeper/internal/server/storage"
	"github.com/iudanet/checkkeeper/internal/validation"
)

// RegisterInput is a new account request
type RegisterInput struct {
	FirstName    string `json:"firstName" validate:"notblank"`
	LastName     string `json:"lastName" validate:"notblank"`
	Phone        string `json:"phone" validate:"len=10"`
	Password     string `json:"password" validate:"min=11"`
	TOSAgreement bool   `json:"tosAgreement" validate:"eq=true"`
}

// ProfileUpdate lists the profile fields to change; nil fields are kept
type ProfileUpdate struct {
	FirstName *string `json:"firstName" validate:"omitempty,notblank"`
	LastName  *string `json:"lastName" validate:"omitempty,notblank"`
	Password  *string `json:"password" validate:"omitempty,min=11"`
}

func (u ProfileUpdate) empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Password == nil
}

// AccountService manages user records. Mutations of an existing user are
// serialized per phone through the shared KeyedMutex.
type AccountService struct {
	store  storage.Store
	hasher PasswordHasher
	tokens TokenVerifier
	locks  *KeyedMutex
	logger *slog.Logger
}

// NewAccountService creates an AccountService
func NewAccountService(store storage.Store, hasher PasswordHasher, tokens TokenVerifier, locks *KeyedMutex, logger *slog.Logger) *AccountService {
	return &AccountService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		locks:  locks,
		logger: logger,
	}
}

// Register creates a user. Fails with ErrAlreadyExists if the phone is taken.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)

	if err := validation.Struct(in); err != nil {
		return invalidErr(err)
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHash, err)
	}

	user := &models.User{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Phone:          in.Phone,
		HashedPassword: hashed,
		Checks:         []string{},
		TOSAgreement:   true,
	}

	if err := s.store.Create(ctx, storage.CollectionUsers, user.Phone, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return ErrAlreadyExists
		}
		return storeErr("create user", err)
	}

	return nil
}

// GetProfile returns the user without its password hash
func (s *AccountService) GetProfile(ctx context.Context, phone, token string) (*models.UserView, error) {
	phone = strings.TrimSpace(phone)
	if err := validation.Phone(phone); err != nil {
		return nil, invalidErr(err)
	}

	if !s.tokens.Verify(ctx, token, phone) {
		return nil, ErrUnauthorized
	}

	var user models.User
	if err := s.store.Read(ctx, storage.CollectionUsers, phone, &user); err != nil {
		return nil, storeErr("read user", err)
	}

	return user.View(), nil
}

// UpdateProfile changes the supplied fields only; a new password is re-hashed
func (s *AccountService) UpdateProfile(ctx context.Context, phone, token string, upd ProfileUpdate) error {
	phone = strings.TrimSpace(phone)
	if err := validation.Phone(phone); err != nil {
		return invalidErr(err)
	}
	if upd.empty() {
		return invalid("no fields to update")
	}
	if err := validation.Struct(upd); err != nil {
		return invalidErr(err)
	}

	if !s.tokens.Verify(ctx, token, phone) {
		return ErrUnauthorized
	}

	// Хешируем до захвата блокировки: хеширование не трогает хранилище
	var hashed string
	if upd.Password != nil {
		h, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrHash, err)
		}
		hashed = h
	}

	unlock := s.locks.Lock(userLockKey(phone))
	defer unlock()

	var user models.User
	if err := s.store.Read(ctx, storage.CollectionUsers, phone, &user); err != nil {
		return storeErr("read user", err)
	}

	if upd.FirstName != nil {
		user.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		user.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.Password != nil {
		user.HashedPassword = hashed
	}

	if err := s.store.Update(ctx, storage.CollectionUsers, phone, &user); err != nil {
		return storeErr("update user", err)
	}

	return nil
}

// DeleteAccount deletes every check of the user and then the user itself.
// If any check could not be deleted the user record is kept and
// ErrPartialCascade is returned, so the call can be retried.
func (s *AccountService) DeleteAccount(ctx context.Context, phone, token string) error {
	phone = strings.TrimSpace(phone)
	if err := validation.Phone(phone); err != nil {
		return invalidErr(err)
	}

	if !s.tokens.Verify(ctx, token, phone) {
		return ErrUnauthorized
	}

	unlock := s.locks.Lock(userLockKey(phone))
	defer unlock()

	var user models.User
	if err := s.store.Read(ctx, storage.CollectionUsers, phone, &user); err != nil {
		return storeErr("read user", err)
	}

	failed := 0
	for _, checkID := range user.Checks {
		err := s.store.Delete(ctx, storage.CollectionChecks, checkID)
		if err == nil || errors.Is(err, storage.ErrNotFound) {
			// Уже удалённая проверка не мешает повторному вызову
			continue
		}
		failed++
		s.logger.ErrorContext(ctx, "failed to delete check of deleted user",
			slog.String("check_id", checkID),
			slog.Any("error", err))
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d checks failed", ErrPartialCascade, failed, len(user.Checks))
	}

	if err := s.store.Delete(ctx, storage.CollectionUsers, phone); err != nil {
		return storeErr("delete user", err)
	}

	return nil
}
