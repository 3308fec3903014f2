package identity

import "errors"

var (
	ErrInvalidID          = errors.New("identity: invalid id")
	ErrInvalidName        = errors.New("identity: invalid name")
	ErrInvalidEmail       = errors.New("identity: invalid email")
	ErrInvalidPassword    = errors.New("identity: invalid password")
	ErrInvalidCompanyID   = errors.New("identity: invalid company id")
	ErrEmailAlreadyExists = errors.New("identity: email already exists")
	ErrEmployeeNotFound   = errors.New("identity: employee not found")
	ErrNotPending         = errors.New("identity: employee is not pending approval")
	ErrCEONotDeletable    = errors.New("identity: ceo account cannot be deleted")
	ErrNoSession          = errors.New("identity: no active session")
)
