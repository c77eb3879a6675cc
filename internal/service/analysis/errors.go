package analysis

import "errors"

var (
	ErrNotFound        = errors.New("analysis: ad not found")
	ErrNoImage         = errors.New("analysis: no image URL for this ad")
	ErrNoCopy          = errors.New("analysis: no copy text for this ad")
	ErrAlreadyAnalyzed = errors.New("analysis: already analyzed")
	ErrInvalidRequest  = errors.New("analysis: invalid request")
)
