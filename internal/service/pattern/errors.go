package pattern

import "errors"

var (
	ErrNotFound      = errors.New("pattern: not found")
	ErrNoPatterns    = errors.New("pattern: no patterns found, run pattern analysis first")
	ErrRunInProgress = errors.New("pattern: analysis already running for scope")
	// ErrSummaryFailed wraps any failure of the external summary call,
	// including unparseable output.
	ErrSummaryFailed = errors.New("pattern: summary generation failed")
)

// NotEnoughData is reported in RunResult.Message when either population
// of a scope is empty.
const NotEnoughData = "not enough data"
