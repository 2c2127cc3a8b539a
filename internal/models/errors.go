package models

import "errors"

// Custom errors
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateKey      = errors.New("duplicate key violation")
	ErrUnknownTeam       = errors.New("unknown team")
	ErrInsufficientData  = errors.New("insufficient data")
	ErrInvalidParameters = errors.New("invalid fit parameters")
)
