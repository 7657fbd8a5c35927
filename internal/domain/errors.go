// Package domain holds the error categories shared by the opinion-space
// pipeline. Concrete errors in the sub-packages wrap one of these so callers
// can branch with errors.Is without knowing which stage failed.
package domain

import "errors"

var (
	// ErrInvalidVote marks a malformed vote record.
	ErrInvalidVote = errors.New("invalid vote")
	// ErrConfiguration marks an unset or unrecognized mode or policy.
	ErrConfiguration = errors.New("configuration error")
	// ErrDegenerateInput marks a matrix that has no usable data left for a stage.
	ErrDegenerateInput = errors.New("degenerate input")
	// ErrUnknownSource marks a bad named-source lookup in centroid correction.
	ErrUnknownSource = errors.New("unknown source")
	// ErrDivideByZero marks a zero vote count reaching scale correction.
	ErrDivideByZero = errors.New("divide by zero")
)
