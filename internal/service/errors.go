package service

import "errors"

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrCertified        = errors.New("log is certified and immutable")
	ErrAlreadyResolved  = errors.New("violation already resolved")
)
