package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the root of every input validation failure raised by the
// simulation core. Use errors.Is to match any of the more specific errors below.
var ErrInvalidInput = errors.New("invalid input")

var (
	// ErrEmptyInput is returned when an operation receives no versions or no results.
	ErrEmptyInput = fmt.Errorf("%w: empty input", ErrInvalidInput)

	// ErrCoordinateMismatch is returned when two coordinate vectors differ in length.
	ErrCoordinateMismatch = fmt.Errorf("%w: different coordinates amount", ErrInvalidInput)

	// ErrReliabilityRange is returned when a reliability lies outside [0, 1].
	ErrReliabilityRange = fmt.Errorf("%w: reliability interval is [0, 1]", ErrInvalidInput)
)
