package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrTrialConsumed       = errors.New("free trial already consumed")
	ErrDuplicateOperation  = errors.New("duplicate operation")
	ErrProviderFailure     = errors.New("provider failure")
)
