package matrix

import (
	"fmt"

	"github.com/opinionmap/opinionmap/internal/domain"
)

var (
	// ErrUnknownPolicy is returned for unvoted-column policies other than drop or zero.
	ErrUnknownPolicy = fmt.Errorf("%w: matrix: unvoted policy must be `drop` or `zero`", domain.ErrConfiguration)
	// ErrInvalidMinVotes is returned for a negative participation threshold.
	ErrInvalidMinVotes = fmt.Errorf("%w: matrix: min votes must be >= 0", domain.ErrConfiguration)
	// ErrEmptyColumn is returned when imputation meets a column without any vote.
	ErrEmptyColumn = fmt.Errorf("%w: matrix: column has no votes to impute from", domain.ErrDegenerateInput)
	// ErrTooLarge is returned when the dense matrix of a log would exceed the cell limit.
	ErrTooLarge = fmt.Errorf("%w: matrix: too many cells", domain.ErrDegenerateInput)
)
