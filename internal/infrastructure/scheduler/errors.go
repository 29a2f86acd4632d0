package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when a run is requested on a
	// stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrRunInProgress is returned when a manual trigger overlaps a run of
	// the same loop
	ErrRunInProgress = errors.New("a run of this loop is already in progress")

	// ErrInvalidConfig indicates invalid scheduler configuration
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
