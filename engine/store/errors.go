package store

import "errors"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrHistoryNotFound = errors.New("history entry not found")
	ErrInvalidPatch    = errors.New("invalid profile update")
)
