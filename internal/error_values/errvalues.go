package errorvalues

import "errors"

var (
	ErrNoActiveGoal = errors.New("no active goal is set")
	ErrInvalidDraft = errors.New("goal draft is invalid")
	ErrTaskNotFound = errors.New("task doesn't exist in the active goal")
	ErrNoData       = errors.New("no recorded data to aggregate")
)
