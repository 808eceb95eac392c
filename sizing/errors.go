package sizing

import "errors"

var (
	ErrInvalidSizeFormat = errors.New("invalid size format")
	ErrUnknownUnit       = errors.New("unknown size unit")
	ErrSizeOutOfRange    = errors.New("size out of range")
	ErrDivisionByZero    = errors.New("chunk size must be greater than zero")
)
