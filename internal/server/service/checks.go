package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iudanet/checkkeeper/internal/crypto"
	"github.com/iudanet/checkkeeper/internal/models"
	"github.com/iudanet/checkkeeper/internal/server/storage"
	"github.com/iudanet/checkkeeper/internal/validation"
)

// DefaultMaxChecks is the default per-user check quota
const DefaultMaxChecks = 5

// CheckSpec describes a new check
type CheckSpec struct {
	Protocol       string `json:"protocol" validate:"oneof=http https"`
	URL            string `json:"url" validate:"notblank"`
	Method         string `json:"method" validate:"oneof=get post put delete"`
	SuccessCodes   []int  `json:"successCodes" validate:"required,min=1"`
	TimeoutSeconds int    `json:"timeoutSeconds" validate:"gte=1,lte=5"`
}

// CheckUpdate lists the check fields to change; nil fields are kept
type CheckUpdate struct {
	Protocol       *string `json:"protocol" validate:"omitempty,oneof=http https"`
	URL            *string `json:"url" validate:"omitempty,notblank"`
	Method         *string `json:"method" validate:"omitempty,oneof=get post put delete"`
	SuccessCodes   []int   `json:"successCodes" validate:"omitempty,min=1"`
	TimeoutSeconds *int    `json:"timeoutSeconds" validate:"omitempty,gte=1,lte=5"`
}

func (u CheckUpdate) empty() bool {
	return u.Protocol == nil && u.URL == nil && u.Method == nil &&
		u.SuccessCodes == nil && u.TimeoutSeconds == nil
}

// CheckService manages checks and keeps each owner's check list in sync.
// Creating and deleting a check are two-step commits (check record, then the
// owner's list); a failed second step is reported as ErrOwnerLink or
// ErrLinkRemoval and is not rolled back.
type CheckService struct {
	store     storage.Store
	tokens    TokenVerifier
	locks     *KeyedMutex
	logger    *slog.Logger
	newID     func() (string, error)
	maxChecks int
}

// NewCheckService creates a CheckService. A non-positive maxChecks falls back to DefaultMaxChecks.
func NewCheckService(store storage.Store, tokens TokenVerifier, locks *KeyedMutex, maxChecks int, logger *slog.Logger) *CheckService {
	if maxChecks <= 0 {
		maxChecks = DefaultMaxChecks
	}
	return &CheckService{
		store:     store,
		tokens:    tokens,
		locks:     locks,
		logger:    logger,
		newID:     func() (string, error) { return crypto.GenerateID(crypto.IDLength) },
		maxChecks: maxChecks,
	}
}

// Create stores a new check for ownerPhone and links it to the owner
func (s *CheckService) Create(ctx context.Context, token, ownerPhone string, spec CheckSpec) (*models.Check, error) {
	ownerPhone = strings.TrimSpace(ownerPhone)
	spec.URL = strings.TrimSpace(spec.URL)
	if err := validation.Phone(ownerPhone); err != nil {
		return nil, invalidErr(err)
	}
	if err := validation.Struct(spec); err != nil {
		return nil, invalidErr(err)
	}

	if !s.tokens.Verify(ctx, token, ownerPhone) {
		return nil, ErrUnauthorized
	}

	// Список проверок владельца читается и пишется под одной блокировкой,
	// чтобы параллельное создание не потеряло чужой id
	unlock := s.locks.Lock(userLockKey(ownerPhone))
	defer unlock()

	var owner models.User
	if err := s.store.Read(ctx, storage.CollectionUsers, ownerPhone, &owner); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, storeErr("read owner", err)
	}

	if len(owner.Checks) >= s.maxChecks {
		return nil, fmt.Errorf("%w: maximum is %d", ErrQuotaExceeded, s.maxChecks)
	}

	check := &models.Check{
		UserPhone:      ownerPhone,
		Protocol:       spec.Protocol,
		URL:            spec.URL,
		Method:         spec.Method,
		SuccessCodes:   spec.SuccessCodes,
		TimeoutSeconds: spec.TimeoutSeconds,
	}

	for attempt := 1; ; attempt++ {
		id, err := s.newID()
		if err != nil {
			return nil, fmt.Errorf("generate check id: %w", err)
		}
		check.ID = id

		err = s.store.Create(ctx, storage.CollectionChecks, check.ID, check)
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrAlreadyExists) || attempt == createAttempts {
			return nil, storeErr("create check", err)
		}
	}

	if !owner.HasCheck(check.ID) {
		owner.Checks = append(owner.Checks, check.ID)
	}
	if err := s.store.Update(ctx, storage.CollectionUsers, ownerPhone, &owner); err != nil {
		s.logger.ErrorContext(ctx, "check orphaned: owner list not updated",
			slog.String("check_id", check.ID),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: check %s: %w", ErrOwnerLink, check.ID, err)
	}

	return check, nil
}

// Get returns a check if the token belongs to the check's owner
func (s *CheckService) Get(ctx context.Context, id, token string) (*models.Check, error) {
	check, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.tokens.Verify(ctx, token, check.UserPhone) {
		return nil, ErrUnauthorized
	}

	return check, nil
}

// Update changes the supplied fields of a check
func (s *CheckService) Update(ctx context.Context, id, token string, upd CheckUpdate) error {
	id = strings.TrimSpace(id)
	if err := validation.ID(id); err != nil {
		return invalidErr(err)
	}
	if upd.empty() {
		return invalid("no fields to update")
	}
	if err := validation.Struct(upd); err != nil {
		return invalidErr(err)
	}

	unlock := s.locks.Lock(checkLockKey(id))
	defer unlock()

	check, err := s.read(ctx, id)
	if err != nil {
		return err
	}

	if !s.tokens.Verify(ctx, token, check.UserPhone) {
		return ErrUnauthorized
	}

	if upd.Protocol != nil {
		check.Protocol = *upd.Protocol
	}
	if upd.URL != nil {
		check.URL = strings.TrimSpace(*upd.URL)
	}
	if upd.Method != nil {
		check.Method = *upd.Method
	}
	if upd.SuccessCodes != nil {
		check.SuccessCodes = upd.SuccessCodes
	}
	if upd.TimeoutSeconds != nil {
		check.TimeoutSeconds = *upd.TimeoutSeconds
	}

	if err := s.store.Update(ctx, storage.CollectionChecks, id, check); err != nil {
		return storeErr("update check", err)
	}

	return nil
}

// Delete removes a check and unlinks it from its owner
func (s *CheckService) Delete(ctx context.Context, id, token string) error {
	check, err := s.read(ctx, id)
	if err != nil {
		return err
	}

	if !s.tokens.Verify(ctx, token, check.UserPhone) {
		return ErrUnauthorized
	}

	unlock := s.locks.Lock(userLockKey(check.UserPhone))
	defer unlock()

	if err := s.store.Delete(ctx, storage.CollectionChecks, check.ID); err != nil {
		return storeErr("delete check", err)
	}

	var owner models.User
	if err := s.store.Read(ctx, storage.CollectionUsers, check.UserPhone, &owner); err != nil {
		return s.linkRemovalFailed(ctx, check.ID, err)
	}

	if !owner.RemoveCheck(check.ID) {
		return s.linkRemovalFailed(ctx, check.ID, errors.New("id missing from owner's check list"))
	}

	if err := s.store.Update(ctx, storage.CollectionUsers, check.UserPhone, &owner); err != nil {
		return s.linkRemovalFailed(ctx, check.ID, err)
	}

	return nil
}

func (s *CheckService) read(ctx context.Context, id string) (*models.Check, error) {
	id = strings.TrimSpace(id)
	if err := validation.ID(id); err != nil {
		return nil, invalidErr(err)
	}

	var check models.Check
	if err := s.store.Read(ctx, storage.CollectionChecks, id, &check); err != nil {
		return nil, storeErr("read check", err)
	}

	return &check, nil
}

func (s *CheckService) linkRemovalFailed(ctx context.Context, checkID string, cause error) error {
	s.logger.ErrorContext(ctx, "check deleted but owner list not updated",
		slog.String("check_id", checkID),
		slog.Any("error", cause))
	return fmt.Errorf("%w: check %s: %w", ErrLinkRemoval, checkID, cause)
}
