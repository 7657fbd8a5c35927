package embedding

import (
	"fmt"

	"github.com/opinionmap/opinionmap/internal/domain"
)

var (
	// ErrIncomplete is returned when Project receives a matrix with absent cells.
	ErrIncomplete = fmt.Errorf("%w: embedding: matrix has absent cells, impute first", domain.ErrDegenerateInput)
	// ErrInsufficientData is returned when the matrix is too small for the requested components.
	ErrInsufficientData = fmt.Errorf("%w: embedding: not enough data for projection", domain.ErrDegenerateInput)
	// ErrDecomposition is returned when the singular value decomposition fails.
	ErrDecomposition = fmt.Errorf("%w: embedding: decomposition failed", domain.ErrDegenerateInput)
	// ErrZeroVoteCount is returned when a participant reaches scale correction without votes.
	ErrZeroVoteCount = fmt.Errorf("%w: embedding: participant has zero vote count", domain.ErrDivideByZero)
	// ErrMalformedCentroids is returned for centroids that are not 2-vectors.
	ErrMalformedCentroids = fmt.Errorf("%w: embedding: malformed centroid collection", domain.ErrDegenerateInput)
)

// UnknownSourceError reports a centroid source name outside the recognized set.
type UnknownSourceError struct {
	Source string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source '%s'", e.Source)
}

// Unwrap lets errors.Is match domain.ErrUnknownSource.
func (e *UnknownSourceError) Unwrap() error {
	return domain.ErrUnknownSource
}
