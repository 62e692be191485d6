package service

import (
	"errors"
	"fmt"

	"interntrack/internal/repository"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrTimerRunning       = errors.New("a timer is already running")
	ErrNoRunningTimer     = errors.New("no running timer")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveUser       = errors.New("user is deactivated")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeErr translates repository sentinels into service errors.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, repository.ErrInvalidReference), errors.Is(err, repository.ErrInvalidValue):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return err
}
