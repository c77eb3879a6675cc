package monitoring

import "errors"

var (
	ErrNotFound       = errors.New("monitoring: not found")
	ErrInvalidRequest = errors.New("monitoring: invalid request")
	ErrKeywordBusy    = errors.New("monitoring: keyword run already in progress")
)
