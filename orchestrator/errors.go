package orchestrator

import "errors"

var (
	ErrRoleNotFound     = errors.New("no host has the role")
	ErrReadinessTimeout = errors.New("readiness timeout")
	ErrLaunchFailed     = errors.New("launch failed")
	ErrStageOrder       = errors.New("stage out of order")

	ErrBinaryRequired       = errors.New("application binary is required")
	ErrCommandRequired      = errors.New("daemon command is required")
	ErrInvalidParallelism   = errors.New("max parallel must be at least 1")
	ErrInvalidTimeout       = errors.New("readiness timeout must be positive")
	ErrInvalidProbeInterval = errors.New("probe interval must be positive")
	ErrNegativeSettle       = errors.New("settle interval must not be negative")
	ErrInvalidReadyPattern  = errors.New("invalid ready pattern")
)
