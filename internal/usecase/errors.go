package usecase

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the REST and websocket deliveries. Concrete errors
// wrap one of these so callers can map them with errors.Is.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrValidation     = errors.New("validation failed")
	ErrPersistence    = errors.New("persistence failure")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
)

var (
	ErrEmptyMessage       = fmt.Errorf("%w: message must not be empty", ErrValidation)
	ErrInvalidUserId      = fmt.Errorf("%w: user id must be positive", ErrValidation)
	ErrReceiverNotFound   = fmt.Errorf("%w: receiver does not exist", ErrNotFound)
	ErrSenderNotFound     = fmt.Errorf("%w: sender does not exist", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("%w: user does not exist", ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrAuthentication)
	ErrInvalidToken       = fmt.Errorf("%w: invalid or expired token", ErrAuthentication)
	ErrEmailAlreadyTaken  = fmt.Errorf("%w: email already taken", ErrConflict)
)
