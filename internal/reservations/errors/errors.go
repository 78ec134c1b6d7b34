package errors

import "errors"

// ErrDuplicateID signals a store insert with an ID that is already taken.
// IDs are randomly generated, so hitting this means something is wrong
// upstream.
var ErrDuplicateID = errors.New("booking ID already exists")
