package matrix

import "fmt"

// Impute replaces every absent cell with the mean of the present cells in its
// column. A column without any present cell is an invariant violation (the
// filter's unvoted-column step should have removed or filled it) and fails
// with ErrEmptyColumn.
func Impute(m *VoteMatrix) (*VoteMatrix, error) {
	out := m.Clone()
	r, c := m.Rows(), m.Cols()

	// Column means in a fixed i→j order.
	sums := make([]float64, c)
	counts := make([]int, c)
	for i := 0; i < r; i++ {
		base := i * c
		for j := 0; j < c; j++ {
			if m.present[base+j] {
				sums[j] += m.data[base+j]
				counts[j]++
			}
		}
	}
	for j := 0; j < c; j++ {
		if counts[j] == 0 {
			return nil, fmt.Errorf("%w: statement %d", ErrEmptyColumn, m.statementIDs[j])
		}
		sums[j] /= float64(counts[j])
	}

	for i := 0; i < r; i++ {
		base := i * c
		for j := 0; j < c; j++ {
			if !out.present[base+j] {
				out.set(i, j, sums[j])
			}
		}
	}
	return out, nil
}
