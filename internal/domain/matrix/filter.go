package matrix

import "fmt"

// DefaultMinVotes is the participation threshold below which a participant's
// row carries too little signal to place them.
const DefaultMinVotes = 7

// UnvotedPolicy decides what happens to statement columns left without any
// vote once sparse participants have been removed.
type UnvotedPolicy string

const (
	// PolicyDrop removes unvoted columns.
	PolicyDrop UnvotedPolicy = "drop"
	// PolicyZero keeps unvoted columns and fills them with pass votes.
	PolicyZero UnvotedPolicy = "zero"
)

// ParsePolicy parses a policy name. The empty string resolves to PolicyDrop.
func ParsePolicy(s string) (UnvotedPolicy, error) {
	switch UnvotedPolicy(s) {
	case "":
		return PolicyDrop, nil
	case PolicyDrop, PolicyZero:
		return UnvotedPolicy(s), nil
	default:
		return "", fmt.Errorf("%w, got %q", ErrUnknownPolicy, s)
	}
}

// FilterOptions configures Filter.
type FilterOptions struct {
	// MinVotes is the minimum number of votes on active statements a
	// participant needs to be kept.
	MinVotes int
	// Policy handles columns without votes after row filtering.
	Policy UnvotedPolicy
}

// DefaultFilterOptions returns the threshold of 7 votes and the drop policy.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{MinVotes: DefaultMinVotes, Policy: PolicyDrop}
}

// Filter reduces m to the active statements and the participants with enough
// votes on them.
//
// Steps run in a fixed order:
//  1. keep the columns whose id is in activeStatementIDs (ids missing from m
//     are ignored, column order follows m);
//  2. drop rows with fewer than opts.MinVotes present cells, counted over the
//     columns kept in step 1;
//  3. handle columns that have no vote among the surviving rows per opts.Policy.
func Filter(m *VoteMatrix, activeStatementIDs []int, opts FilterOptions) (*VoteMatrix, error) {
	switch opts.Policy {
	case PolicyDrop, PolicyZero:
	default:
		return nil, fmt.Errorf("%w, got %q", ErrUnknownPolicy, string(opts.Policy))
	}
	if opts.MinVotes < 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidMinVotes, opts.MinVotes)
	}

	// Step 1: active columns.
	active := make(map[int]struct{}, len(activeStatementIDs))
	for _, id := range activeStatementIDs {
		active[id] = struct{}{}
	}
	cols := make([]int, 0, len(activeStatementIDs))
	for j, tid := range m.statementIDs {
		if _, ok := active[tid]; ok {
			cols = append(cols, j)
		}
	}
	allRows := sequence(m.Rows())
	byColumn := m.selectView(allRows, cols)

	// Step 2: participation threshold on the column-filtered counts.
	rows := make([]int, 0, byColumn.Rows())
	for i := 0; i < byColumn.Rows(); i++ {
		if byColumn.RowCount(i) >= opts.MinVotes {
			rows = append(rows, i)
		}
	}
	byRow := byColumn.selectView(rows, sequence(byColumn.Cols()))

	// Step 3: unvoted columns.
	switch opts.Policy {
	case PolicyZero:
		for j := 0; j < byRow.Cols(); j++ {
			if byRow.ColumnCount(j) > 0 {
				continue
			}
			for i := 0; i < byRow.Rows(); i++ {
				byRow.set(i, j, 0)
			}
		}
		return byRow, nil
	default:
		voted := make([]int, 0, byRow.Cols())
		for j := 0; j < byRow.Cols(); j++ {
			if byRow.ColumnCount(j) > 0 {
				voted = append(voted, j)
			}
		}
		return byRow.selectView(sequence(byRow.Rows()), voted), nil
	}
}
