package ads

import "errors"

var (
	ErrNotFound       = errors.New("ads: not found")
	ErrInvalidRequest = errors.New("ads: invalid request")
)
