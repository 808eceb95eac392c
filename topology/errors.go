package topology

import "errors"

var (
	ErrMalformedTable   = errors.New("malformed link table")
	ErrInvalidAttribute = errors.New("invalid link attribute")
)
