package model

import "errors"

// Error taxonomy shared by the hardware-facing subsystems. Subsystems wrap
// these with context; callers match with errors.Is.
var (
	// ErrDeviceUnavailable: input or framebuffer device missing or unopenable.
	// Fatal to the subsystem, not necessarily to the process.
	ErrDeviceUnavailable = errors.New("device unavailable")

	// ErrMalformedRecord: partial or garbled input record. Discarded.
	ErrMalformedRecord = errors.New("malformed input record")

	// ErrCalibrationDegenerate: min == max on an axis.
	ErrCalibrationDegenerate = errors.New("calibration range is degenerate")

	// ErrActionLaunch: the system command could not be spawned.
	ErrActionLaunch = errors.New("action launch failed")
)
