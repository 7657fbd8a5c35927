package statement

import "sort"

// Bookkeeping holds the mod-in, mod-out and meta id lists derived from
// statement metadata. Meta statements land in both mod-in and mod-out; whether
// that is intended is unsettled, the lists are kept for output parity and do
// not feed the matrix or the embedding.
type Bookkeeping struct {
	ModIn  []int `json:"mod_in"`
	ModOut []int `json:"mod_out"`
	Meta   []int `json:"meta_tids"`
}

// ComputeBookkeeping derives the lists, each ascending.
func ComputeBookkeeping(statements []Statement) Bookkeeping {
	b := Bookkeeping{ModIn: []int{}, ModOut: []int{}, Meta: []int{}}
	for _, s := range statements {
		if s.IsMeta || s.Moderation == Approved {
			b.ModIn = append(b.ModIn, s.ID)
		}
		if s.IsMeta || s.Moderation == Rejected {
			b.ModOut = append(b.ModOut, s.ID)
		}
		if s.IsMeta {
			b.Meta = append(b.Meta, s.ID)
		}
	}
	sort.Ints(b.ModIn)
	sort.Ints(b.ModOut)
	sort.Ints(b.Meta)
	return b
}
