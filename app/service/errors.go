package service

import "errors"

var (
	ErrOrderRequired       = errors.New("order is required")
	ErrProviderUnsupported = errors.New("provider is not supported")
)
