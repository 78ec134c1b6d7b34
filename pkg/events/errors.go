package events

import "errors"

var (
	// ErrPublisherClosed indicates the publisher has been closed
	ErrPublisherClosed = errors.New("event publisher is closed")

	// ErrEmptyKey indicates the event key is empty
	ErrEmptyKey = errors.New("event key cannot be empty")
)
