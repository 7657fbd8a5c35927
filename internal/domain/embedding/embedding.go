// Package embedding projects an imputed vote matrix into a low-dimensional
// opinion space and applies the post-hoc corrections that make sparse voters
// and PCA's sign ambiguity comparable across runs.
package embedding

// DefaultComponents is the number of dimensions of the opinion space.
const DefaultComponents = 2

// Embedding holds one coordinate vector per participant, in the row order of
// the matrix it was computed from, plus the variance captured per component.
type Embedding struct {
	ParticipantIDs    []int       `json:"participant_ids"`
	Coordinates       [][]float64 `json:"coordinates"`
	ExplainedVariance []float64   `json:"explained_variance"`
}

// Components returns the dimensionality of the embedding.
func (e *Embedding) Components() int {
	return len(e.ExplainedVariance)
}

// Coordinate returns the vector of participant pid.
func (e *Embedding) Coordinate(pid int) ([]float64, bool) {
	for i, id := range e.ParticipantIDs {
		if id == pid {
			return e.Coordinates[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy.
func (e *Embedding) Clone() *Embedding {
	out := &Embedding{
		ParticipantIDs:    append([]int(nil), e.ParticipantIDs...),
		Coordinates:       make([][]float64, len(e.Coordinates)),
		ExplainedVariance: append([]float64(nil), e.ExplainedVariance...),
	}
	for i, row := range e.Coordinates {
		out.Coordinates[i] = append([]float64(nil), row...)
	}
	return out
}
