// Package codec converts categorical and multi-valued columns into one-hot
// indicator columns and back. Encoding keeps only each column's top-K most
// frequent values; everything outside the retained set collapses to all-zero
// indicators. Decode rebuilds the retained portion of an encoding, so values
// outside the top-K are not recoverable.
package codec

import (
	"sort"
	"strings"

	"github.com/moviedex/preproc/internal/frame"
)

// DefaultDelimiter separates the tags of a multi-valued column.
const DefaultDelimiter = "|"

// ColumnState is the per-column metadata required to invert an encoding:
// the retained values in rank order and whether the column is multi-valued.
type ColumnState struct {
	Values     []string `json:"values" yaml:"values"`
	MultiValue bool     `json:"multi_value" yaml:"multi_value"`
}

// State accumulates encoding metadata across chunks. A column fitted once is
// reused as-is by every later encode, so indicator columns stay consistent
// for the whole dataset, and by the matching decode. Encode and decode are
// only safe as a pair sharing the same State.
type State struct {
	columns map[string]ColumnState
	order   []string
}

// NewState returns an empty accumulating state.
func NewState() *State {
	return &State{columns: make(map[string]ColumnState)}
}

// Columns returns the fitted column names in fit order.
func (s *State) Columns() []string { return s.order }

// Column returns the state for a fitted column.
func (s *State) Column(name string) (ColumnState, bool) {
	cs, ok := s.columns[name]
	return cs, ok
}

func (s *State) set(name string, cs ColumnState) {
	if _, ok := s.columns[name]; !ok {
		s.order = append(s.order, name)
	}
	s.columns[name] = cs
}

// Codec one-hot encodes categorical columns. TopThreshold bounds how many
// distinct values per column get indicator columns.
type Codec struct {
	Delimiter    string
	TopThreshold int
}

// New returns a codec with the given top-K threshold and the default
// delimiter.
func New(topThreshold int) *Codec {
	return &Codec{Delimiter: DefaultDelimiter, TopThreshold: topThreshold}
}

// Fit computes the column state for one column of the chunk: multi-value
// detection by literal delimiter containment, then value frequencies (split
// first for multi-valued columns) ranked by count with ties broken by
// first-seen order.
func (c *Codec) Fit(f *frame.Frame, column string) ColumnState {
	cells, _ := f.Column(column)

	multi := false
	for _, cell := range cells {
		if strings.Contains(cell.Text(), c.Delimiter) {
			multi = true
			break
		}
	}

	counts := make(map[string]int)
	var seen []string
	add := func(v string) {
		if _, ok := counts[v]; !ok {
			seen = append(seen, v)
		}
		counts[v]++
	}
	for _, cell := range cells {
		text := cell.Text()
		if multi {
			for _, part := range strings.Split(text, c.Delimiter) {
				add(part)
			}
		} else {
			add(text)
		}
	}

	rank := make(map[string]int, len(seen))
	for i, v := range seen {
		rank[v] = i
	}
	sort.SliceStable(seen, func(i, j int) bool {
		if counts[seen[i]] != counts[seen[j]] {
			return counts[seen[i]] > counts[seen[j]]
		}
		return rank[seen[i]] < rank[seen[j]]
	})
	if len(seen) > c.TopThreshold {
		seen = seen[:c.TopThreshold]
	}
	return ColumnState{Values: seen, MultiValue: multi}
}

// Encode one-hot encodes every column of the chunk not listed in exclude.
// Columns already present in state reuse their fitted values; new columns are
// fitted from this chunk and added to state. The result keeps excluded
// columns unchanged, drops the encoded originals and appends one indicator
// column "<column>_<value>" per retained value.
func (c *Codec) Encode(f *frame.Frame, exclude []string, state *State) *frame.Frame {
	excluded := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		excluded[e] = true
	}

	out := f.Clone()
	for _, col := range f.Columns() {
		if excluded[col] {
			continue
		}
		cs, ok := state.Column(col)
		if !ok {
			cs = c.Fit(f, col)
			state.set(col, cs)
		}

		cells, _ := f.Column(col)
		for _, val := range cs.Values {
			indicator := make([]frame.Cell, len(cells))
			for i, cell := range cells {
				hit := false
				if cs.MultiValue {
					for _, part := range strings.Split(cell.Text(), c.Delimiter) {
						if part == val {
							hit = true
							break
						}
					}
				} else {
					hit = cell.Text() == val
				}
				if hit {
					indicator[i] = frame.Number(1)
				} else {
					indicator[i] = frame.Number(0)
				}
			}
			_ = out.AddColumn(col+"_"+val, indicator)
		}
		out.DropColumn(col)
	}
	return out
}

// Decode inverts an encoding performed with the same state. For each fitted
// column it locates indicator columns by the "<column>_" prefix, rebuilds the
// original value (delimiter-joined retained values for multi-valued columns,
// first hit in rank order otherwise) and replaces the indicators with the
// rebuilt column. Rows whose value fell outside the retained set decode to
// the empty string, not to the original value.
func (c *Codec) Decode(f *frame.Frame, state *State) *frame.Frame {
	out := f.Clone()
	for _, col := range state.Columns() {
		cs, _ := state.Column(col)

		var indicators []string
		for _, name := range out.Columns() {
			if strings.HasPrefix(name, col+"_") {
				indicators = append(indicators, name)
			}
		}
		if len(indicators) == 0 {
			continue
		}

		rebuilt := make([]frame.Cell, out.Len())
		for row := 0; row < out.Len(); row++ {
			var present []string
			for _, val := range cs.Values {
				v, ok := out.Cell(col+"_"+val, row).Number()
				if ok && v != 0 {
					present = append(present, val)
					if !cs.MultiValue {
						break
					}
				}
			}
			if cs.MultiValue {
				rebuilt[row] = frame.String(strings.Join(present, c.Delimiter))
			} else if len(present) > 0 {
				rebuilt[row] = frame.String(present[0])
			} else {
				rebuilt[row] = frame.String("")
			}
		}
		for _, name := range indicators {
			out.DropColumn(name)
		}
		_ = out.AddColumn(col, rebuilt)
	}
	return out
}
