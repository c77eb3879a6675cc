package collection

import "errors"

var (
	ErrNotFound       = errors.New("collection: job not found")
	ErrInvalidRequest = errors.New("collection: invalid request")
	ErrQueueFull      = errors.New("collection: job queue is full")
)
