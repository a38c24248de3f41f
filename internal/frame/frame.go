// Package frame provides the mutable column-oriented table that preprocessing
// stages operate on. A Frame is a bounded chunk of rows; cells are tagged
// values so a column can hold a mix of numbers, strings and missing entries
// while it is being cleaned.
package frame

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the value held by a Cell.
type Kind uint8

const (
	// KindMissing marks an absent or unrecoverable value.
	KindMissing Kind = iota
	// KindNumber marks a float64 value.
	KindNumber
	// KindString marks a string value.
	KindString
)

// Cell is a single tagged value. The zero value is missing.
type Cell struct {
	kind Kind
	num  float64
	str  string
}

// Missing returns the missing sentinel cell.
func Missing() Cell { return Cell{} }

// Number returns a numeric cell.
func Number(v float64) Cell { return Cell{kind: KindNumber, num: v} }

// String returns a string cell.
func String(v string) Cell { return Cell{kind: KindString, str: v} }

// Kind reports the cell's value kind.
func (c Cell) Kind() Kind { return c.kind }

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool { return c.kind == KindMissing }

// Number returns the numeric value and whether the cell holds one.
func (c Cell) Number() (float64, bool) {
	if c.kind != KindNumber {
		return 0, false
	}
	return c.num, true
}

// Str returns the string value and whether the cell holds one.
func (c Cell) Str() (string, bool) {
	if c.kind != KindString {
		return "", false
	}
	return c.str, true
}

// Text renders the cell the way it appears in CSV output: numbers in the
// shortest round-trippable form, missing as the empty string.
func (c Cell) Text() string {
	switch c.kind {
	case KindNumber:
		return strconv.FormatFloat(c.num, 'g', -1, 64)
	case KindString:
		return c.str
	default:
		return ""
	}
}

// Equal reports exact cell equality, including kind.
func (c Cell) Equal(o Cell) bool {
	return c.kind == o.kind && c.num == o.num && c.str == o.str
}

// Frame is an ordered collection of equally sized columns. Column order is
// stable: it is the order of insertion and the order of CSV output.
type Frame struct {
	cols  []string
	index map[string]int
	data  [][]Cell
	rows  int
}

// New creates an empty frame with no columns.
func New() *Frame {
	return &Frame{index: make(map[string]int)}
}

// NewWithColumns creates a frame with the given empty columns.
func NewWithColumns(cols []string) *Frame {
	f := New()
	for _, c := range cols {
		f.AddColumn(c, nil)
	}
	return f
}

// Columns returns the column names in order. The returned slice is shared;
// callers must not mutate it.
func (f *Frame) Columns() []string { return f.cols }

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.cols) }

// HasColumn reports whether the named column exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the cells of the named column. The slice aliases the frame's
// storage; writes through it are visible to the frame.
func (f *Frame) Column(name string) ([]Cell, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.data[i], true
}

// Cell returns the cell at (column, row). Missing column or out-of-range row
// yields the missing cell.
func (f *Frame) Cell(name string, row int) Cell {
	i, ok := f.index[name]
	if !ok || row < 0 || row >= f.rows {
		return Missing()
	}
	return f.data[i][row]
}

// SetCell overwrites the cell at (column, row). Unknown columns and
// out-of-range rows are ignored.
func (f *Frame) SetCell(name string, row int, c Cell) {
	i, ok := f.index[name]
	if !ok || row < 0 || row >= f.rows {
		return
	}
	f.data[i][row] = c
}

// AddColumn appends a column. A nil cells slice adds an all-missing column;
// otherwise the slice length must match the frame's row count (or define it
// for a frame with no columns yet). Replaces the column if the name exists.
func (f *Frame) AddColumn(name string, cells []Cell) error {
	if len(f.cols) == 0 && cells != nil {
		f.rows = len(cells)
	}
	if cells == nil {
		cells = make([]Cell, f.rows)
	}
	if len(cells) != f.rows {
		return fmt.Errorf("column %q has %d cells, frame has %d rows", name, len(cells), f.rows)
	}
	if i, ok := f.index[name]; ok {
		f.data[i] = cells
		return nil
	}
	f.index[name] = len(f.cols)
	f.cols = append(f.cols, name)
	f.data = append(f.data, cells)
	return nil
}

// DropColumn removes the named column if present.
func (f *Frame) DropColumn(name string) {
	i, ok := f.index[name]
	if !ok {
		return
	}
	f.cols = append(f.cols[:i], f.cols[i+1:]...)
	f.data = append(f.data[:i], f.data[i+1:]...)
	delete(f.index, name)
	for j := i; j < len(f.cols); j++ {
		f.index[f.cols[j]] = j
	}
}

// Row returns a copy of the row's cells in column order.
func (f *Frame) Row(row int) []Cell {
	out := make([]Cell, len(f.cols))
	for i := range f.cols {
		out[i] = f.data[i][row]
	}
	return out
}

// AppendRow appends one row given in column order.
func (f *Frame) AppendRow(cells []Cell) error {
	if len(cells) != len(f.cols) {
		return fmt.Errorf("row has %d cells, frame has %d columns", len(cells), len(f.cols))
	}
	for i := range f.data {
		f.data[i] = append(f.data[i], cells[i])
	}
	f.rows++
	return nil
}

// Filter returns a new frame containing the rows where mask is true, in order.
func (f *Frame) Filter(mask []bool) *Frame {
	out := NewWithColumns(f.cols)
	for r := 0; r < f.rows; r++ {
		if r < len(mask) && mask[r] {
			_ = out.AppendRow(f.Row(r))
		}
	}
	return out
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := New()
	for i, c := range f.cols {
		cells := make([]Cell, len(f.data[i]))
		copy(cells, f.data[i])
		_ = out.AddColumn(c, cells)
	}
	out.rows = f.rows
	return out
}

// Append appends all rows of other. Columns present in only one frame are
// padded with missing cells in the result.
func (f *Frame) Append(other *Frame) {
	for _, c := range other.cols {
		if !f.HasColumn(c) {
			_ = f.AddColumn(c, nil)
		}
	}
	for r := 0; r < other.rows; r++ {
		row := make([]Cell, len(f.cols))
		for i, c := range f.cols {
			row[i] = other.Cell(c, r)
		}
		_ = f.AppendRow(row)
	}
}

// RowMissing reports whether any cell of the row is missing.
func (f *Frame) RowMissing(row int) bool {
	for i := range f.data {
		if f.data[i][row].IsMissing() {
			return true
		}
	}
	return false
}

// ColumnMissing reports whether any cell of the named column is missing.
func (f *Frame) ColumnMissing(name string) bool {
	cells, ok := f.Column(name)
	if !ok {
		return false
	}
	for _, c := range cells {
		if c.IsMissing() {
			return true
		}
	}
	return false
}

// ColumnAllMissing reports whether every cell of the named column is missing.
// An absent column counts as all-missing.
func (f *Frame) ColumnAllMissing(name string) bool {
	cells, ok := f.Column(name)
	if !ok {
		return true
	}
	for _, c := range cells {
		if !c.IsMissing() {
			return false
		}
	}
	return true
}

// IsNumericColumn reports whether the column holds only numbers and missing
// cells. An all-missing column counts as numeric, matching the float dtype a
// fully unparsed numeric column ends up with.
func (f *Frame) IsNumericColumn(name string) bool {
	cells, ok := f.Column(name)
	if !ok {
		return false
	}
	for _, c := range cells {
		if c.Kind() == KindString {
			return false
		}
	}
	return true
}

// NumericColumns returns the names of numeric columns in frame order.
func (f *Frame) NumericColumns() []string {
	var out []string
	for _, c := range f.cols {
		if f.IsNumericColumn(c) {
			out = append(out, c)
		}
	}
	return out
}

// String renders a short human-readable summary.
func (f *Frame) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Frame[%dx%d]", f.rows, len(f.cols))
	if len(f.cols) > 0 {
		fmt.Fprintf(&b, "(%s)", strings.Join(f.cols, ", "))
	}
	return b.String()
}
