package types

import "errors"

// Domain errors for record validation
var (
	ErrNilTags  = errors.New("record tags cannot be nil")
	ErrEmptyTag = errors.New("record tags cannot contain empty strings")
)
