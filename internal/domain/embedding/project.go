package embedding

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/opinionmap/opinionmap/internal/domain/matrix"
)

// Project runs PCA on the transpose of a fully imputed matrix.
//
// Statements are the samples and participants the features, so the principal
// axes live in participant space: entry i of axis k is participant i's k-th
// coordinate. Explained variance is σ²/(samples-1) per component, in
// decreasing order. No centering or scaling is applied beyond PCA's own mean
// removal. Each axis is oriented so its largest-magnitude entry is positive,
// which makes the output deterministic for a given matrix.
func Project(m *matrix.VoteMatrix, nComponents int) (*Embedding, error) {
	participants, statements := m.Rows(), m.Cols()
	if !m.Complete() {
		return nil, ErrIncomplete
	}
	if nComponents < 1 {
		return nil, fmt.Errorf("%w: components must be >= 1, got %d", ErrInsufficientData, nComponents)
	}
	if participants < 1 || statements < 2 {
		return nil, fmt.Errorf("%w: %d participants × %d statements", ErrInsufficientData, participants, statements)
	}
	if limit := min(participants, statements); nComponents > limit {
		return nil, fmt.Errorf("%w: %d components requested, at most %d available", ErrInsufficientData, nComponents, limit)
	}

	samples := mat.NewDense(statements, participants, nil)
	for i := 0; i < participants; i++ {
		for j := 0; j < statements; j++ {
			val, _ := m.At(i, j)
			samples.Set(j, i, val)
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(samples, nil); !ok {
		return nil, ErrDecomposition
	}
	var axes mat.Dense
	pc.VectorsTo(&axes)
	vars := pc.VarsTo(nil)

	out := &Embedding{
		ParticipantIDs:    m.ParticipantIDs(),
		Coordinates:       make([][]float64, participants),
		ExplainedVariance: make([]float64, nComponents),
	}
	for i := range out.Coordinates {
		out.Coordinates[i] = make([]float64, nComponents)
	}
	for k := 0; k < nComponents; k++ {
		sign := axisSign(&axes, k)
		for i := 0; i < participants; i++ {
			out.Coordinates[i][k] = sign * axes.At(i, k)
		}
		out.ExplainedVariance[k] = math.Max(vars[k], 0)
	}
	return out, nil
}

// axisSign returns -1 when the largest-magnitude entry of column k is negative.
func axisSign(axes *mat.Dense, k int) float64 {
	rows, _ := axes.Dims()
	best, at := -1.0, 0
	for i := 0; i < rows; i++ {
		if a := math.Abs(axes.At(i, k)); a > best {
			best, at = a, i
		}
	}
	if axes.At(at, k) < 0 {
		return -1
	}
	return 1
}
