package service

import (
	"errors"
	"fmt"

	"github.com/iudanet/checkkeeper/internal/server/storage"
)

// Service errors. Callers branch on them with errors.Is; the message text is
// for humans only.
var (
	// ErrValidation indicates malformed or missing input, detected before any storage call
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates a missing, invalid, expired or foreign token
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates that the requested record doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a user with this phone is already registered
	ErrAlreadyExists = errors.New("already exists")

	// ErrUserNotFound indicates that no user matches the phone given at login
	ErrUserNotFound = errors.New("user not found")

	// ErrPasswordMismatch indicates that the password doesn't match the stored hash
	ErrPasswordMismatch = errors.New("password did not match")

	// ErrAlreadyExpired indicates an attempt to extend a token that has expired
	ErrAlreadyExpired = errors.New("token has already expired")

	// ErrQuotaExceeded indicates that the user already owns the maximum number of checks
	ErrQuotaExceeded = errors.New("check quota exceeded")

	// ErrHash indicates that the password could not be hashed
	ErrHash = errors.New("could not hash password")

	// ErrStore indicates a storage failure
	ErrStore = errors.New("storage failure")

	// ErrPartialCascade indicates that some checks of a user could not be
	// deleted; the user record is kept so the deletion can be retried
	ErrPartialCascade = errors.New("could not delete all checks of the user")

	// ErrOwnerLink indicates that a check was created but could not be linked
	// to its owner; the check record is orphaned
	ErrOwnerLink = errors.New("check created but not linked to its owner")

	// ErrLinkRemoval indicates that a check was deleted but its id could not be
	// removed from the owner's list
	ErrLinkRemoval = errors.New("check deleted but not unlinked from its owner")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func invalidErr(err error) error {
	return fmt.Errorf("%w: %s", ErrValidation, err.Error())
}

// storeErr переводит ошибку хранилища в ошибку сервиса
func storeErr(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}
