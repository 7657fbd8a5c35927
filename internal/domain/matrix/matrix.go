// Package matrix builds, filters and imputes the participant × statement vote
// matrix.
//
// A VoteMatrix keeps its cells in a row-major float64 buffer next to a
// parallel presence mask, so an absent cell (no vote cast) is never confused
// with a present zero (a pass vote). Row and column labels are the participant
// and statement ids; lookups go through explicit id → index maps.
//
// All operations return new matrices; inputs are never mutated.
package matrix

import (
	"encoding/json"
	"math"
)

// Absent is the marker used for cells without a vote in Dense output.
// Test for it with math.IsNaN, never with ==.
var Absent = math.NaN()

// VoteMatrix is a dense participant × statement table of optional votes.
type VoteMatrix struct {
	participantIDs []int
	statementIDs   []int
	rowIndex       map[int]int
	colIndex       map[int]int
	data           []float64
	present        []bool
}

// newVoteMatrix allocates an all-absent matrix with the given labels.
func newVoteMatrix(participantIDs, statementIDs []int) *VoteMatrix {
	m := &VoteMatrix{
		participantIDs: participantIDs,
		statementIDs:   statementIDs,
		rowIndex:       make(map[int]int, len(participantIDs)),
		colIndex:       make(map[int]int, len(statementIDs)),
		data:           make([]float64, len(participantIDs)*len(statementIDs)),
		present:        make([]bool, len(participantIDs)*len(statementIDs)),
	}
	for i, pid := range participantIDs {
		m.rowIndex[pid] = i
	}
	for j, tid := range statementIDs {
		m.colIndex[tid] = j
	}
	return m
}

// Rows returns the number of participant rows.
func (m *VoteMatrix) Rows() int { return len(m.participantIDs) }

// Cols returns the number of statement columns.
func (m *VoteMatrix) Cols() int { return len(m.statementIDs) }

// ParticipantIDs returns a copy of the row labels.
func (m *VoteMatrix) ParticipantIDs() []int { return append([]int(nil), m.participantIDs...) }

// StatementIDs returns a copy of the column labels.
func (m *VoteMatrix) StatementIDs() []int { return append([]int(nil), m.statementIDs...) }

// RowIndex returns the row holding participant pid.
func (m *VoteMatrix) RowIndex(pid int) (int, bool) {
	i, ok := m.rowIndex[pid]
	return i, ok
}

// ColIndex returns the column holding statement tid.
func (m *VoteMatrix) ColIndex(tid int) (int, bool) {
	j, ok := m.colIndex[tid]
	return j, ok
}

// At returns the cell at (i, j) and whether a vote is present there.
// It panics on out-of-range indices like a slice access.
func (m *VoteMatrix) At(i, j int) (float64, bool) {
	k := m.offset(i, j)
	if !m.present[k] {
		return 0, false
	}
	return m.data[k], true
}

// Present reports whether the cell at (i, j) holds a vote.
func (m *VoteMatrix) Present(i, j int) bool {
	return m.present[m.offset(i, j)]
}

// Lookup returns the vote of participant pid on statement tid.
func (m *VoteMatrix) Lookup(pid, tid int) (float64, bool) {
	i, ok := m.rowIndex[pid]
	if !ok {
		return 0, false
	}
	j, ok := m.colIndex[tid]
	if !ok {
		return 0, false
	}
	return m.At(i, j)
}

func (m *VoteMatrix) offset(i, j int) int {
	if i < 0 || i >= m.Rows() || j < 0 || j >= m.Cols() {
		panic("matrix: index out of range")
	}
	return i*m.Cols() + j
}

func (m *VoteMatrix) set(i, j int, v float64) {
	k := i*m.Cols() + j
	m.data[k] = v
	m.present[k] = true
}

// RowCount returns the number of present cells in row i.
func (m *VoteMatrix) RowCount(i int) int {
	c := m.Cols()
	n := 0
	for _, p := range m.present[i*c : (i+1)*c] {
		if p {
			n++
		}
	}
	return n
}

// ColumnCount returns the number of present cells in column j.
func (m *VoteMatrix) ColumnCount(j int) int {
	c := m.Cols()
	n := 0
	for i := 0; i < m.Rows(); i++ {
		if m.present[i*c+j] {
			n++
		}
	}
	return n
}

// RowCounts maps each participant id to its number of present cells.
func (m *VoteMatrix) RowCounts() map[int]int {
	out := make(map[int]int, m.Rows())
	for i, pid := range m.participantIDs {
		out[pid] = m.RowCount(i)
	}
	return out
}

// PresentCount returns the number of cells holding a vote.
func (m *VoteMatrix) PresentCount() int {
	n := 0
	for _, p := range m.present {
		if p {
			n++
		}
	}
	return n
}

// AbsentCount returns the number of cells without a vote.
func (m *VoteMatrix) AbsentCount() int {
	return len(m.present) - m.PresentCount()
}

// ParticipantCount returns the number of rows, including all-absent ones.
func (m *VoteMatrix) ParticipantCount() int { return m.Rows() }

// StatementCount returns the number of columns with at least one vote.
func (m *VoteMatrix) StatementCount() int {
	n := 0
	for j := 0; j < m.Cols(); j++ {
		if m.ColumnCount(j) > 0 {
			n++
		}
	}
	return n
}

// UnvotedStatementIDs returns the ids of columns without any vote.
func (m *VoteMatrix) UnvotedStatementIDs() []int {
	out := []int{}
	for j, tid := range m.statementIDs {
		if m.ColumnCount(j) == 0 {
			out = append(out, tid)
		}
	}
	return out
}

// Complete reports whether every cell holds a value.
func (m *VoteMatrix) Complete() bool {
	for _, p := range m.present {
		if !p {
			return false
		}
	}
	return true
}

// Dense returns a row-major copy of the cells with Absent in empty cells.
func (m *VoteMatrix) Dense() []float64 {
	out := make([]float64, len(m.data))
	for k, v := range m.data {
		if m.present[k] {
			out[k] = v
		} else {
			out[k] = Absent
		}
	}
	return out
}

// Clone returns a deep copy.
func (m *VoteMatrix) Clone() *VoteMatrix {
	out := newVoteMatrix(m.ParticipantIDs(), m.StatementIDs())
	copy(out.data, m.data)
	copy(out.present, m.present)
	return out
}

// selectView copies the rows and columns at the given indices, in order.
func (m *VoteMatrix) selectView(rows, cols []int) *VoteMatrix {
	pids := make([]int, len(rows))
	for r, i := range rows {
		pids[r] = m.participantIDs[i]
	}
	tids := make([]int, len(cols))
	for c, j := range cols {
		tids[c] = m.statementIDs[j]
	}
	out := newVoteMatrix(pids, tids)
	for r, i := range rows {
		for c, j := range cols {
			if v, ok := m.At(i, j); ok {
				out.set(r, c, v)
			}
		}
	}
	return out
}

type jsonMatrix struct {
	ParticipantIDs []int        `json:"participant_ids"`
	StatementIDs   []int        `json:"statement_ids"`
	Values         [][]*float64 `json:"values"`
}

// MarshalJSON encodes absent cells as null.
func (m *VoteMatrix) MarshalJSON() ([]byte, error) {
	out := jsonMatrix{
		ParticipantIDs: m.ParticipantIDs(),
		StatementIDs:   m.StatementIDs(),
		Values:         make([][]*float64, m.Rows()),
	}
	for i := 0; i < m.Rows(); i++ {
		row := make([]*float64, m.Cols())
		for j := 0; j < m.Cols(); j++ {
			if v, ok := m.At(i, j); ok {
				v := v
				row[j] = &v
			}
		}
		out.Values[i] = row
	}
	return json.Marshal(out)
}
