package domain

// ColumnType is the closed set of supported column types.
type ColumnType string

const (
	TypeInt64   ColumnType = "INT64"
	TypeVarchar ColumnType = "VARCHAR"
)

// ValidColumnType reports whether t is a member of the closed type set.
func ValidColumnType(t ColumnType) bool {
	return t == TypeInt64 || t == TypeVarchar
}

// Column is a named, typed field of a table schema.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// ColumnVector is a column plus its data. Exactly one of Ints/Strs is in use,
// selected by Column.Type.
type ColumnVector struct {
	Column
	Ints []int64  `json:"-"`
	Strs []string `json:"-"`
}

// NewColumnVector allocates an empty vector for the given column.
func NewColumnVector(c Column) *ColumnVector {
	return &ColumnVector{Column: c}
}

// Len returns the number of values stored in the vector.
func (v *ColumnVector) Len() int {
	if v.Type == TypeInt64 {
		return len(v.Ints)
	}
	return len(v.Strs)
}

// Clone deep-copies the vector.
func (v *ColumnVector) Clone() *ColumnVector {
	out := &ColumnVector{Column: v.Column}
	if v.Type == TypeInt64 {
		out.Ints = append([]int64(nil), v.Ints...)
	} else {
		out.Strs = append([]string(nil), v.Strs...)
	}
	return out
}

// Head returns a copy of the vector truncated to at most n values.
// A negative n means no limit.
func (v *ColumnVector) Head(n int) *ColumnVector {
	out := v.Clone()
	if n < 0 || n >= out.Len() {
		return out
	}
	if out.Type == TypeInt64 {
		out.Ints = out.Ints[:n]
	} else {
		out.Strs = out.Strs[:n]
	}
	return out
}

// Table is a named, schema-typed row store held column-major.
type Table struct {
	ID      string
	Name    string
	NumRows int
	Columns []*ColumnVector
}

// Schema returns the table's column definitions in order.
func (t *Table) Schema() []Column {
	cols := make([]Column, len(t.Columns))
	for i, v := range t.Columns {
		cols[i] = v.Column
	}
	return cols
}

// SnapshotColumns deep-copies the table's column vectors.
func (t *Table) SnapshotColumns() []*ColumnVector {
	out := make([]*ColumnVector, len(t.Columns))
	for i, v := range t.Columns {
		out[i] = v.Clone()
	}
	return out
}
