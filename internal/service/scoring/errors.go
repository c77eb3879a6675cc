package scoring

import "errors"

// Sentinel errors for the scoring service layer.
var (
	ErrRunInProgress = errors.New("a scoring run is already in progress")
)

// NotEnoughData is the result message when there is nothing to score.
const NotEnoughData = "not enough data"
