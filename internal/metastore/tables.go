// Package metastore holds the in-memory registries for tables and queries.
// Both are safe for concurrent use; mutations are atomic with respect to
// readers.
package metastore

import (
	"sync"

	"minilake/internal/domain"
)

const (
	msgTableNameTaken    = "Table with given name already exists"
	msgDuplicateColumns  = "Two columns have identical names"
	msgTableIDNotFound   = "Couldn't find a table of given ID"
	msgTableNameNotFound = "There is no table with that name"
)

// TableRegistry owns the set of live tables.
type TableRegistry struct {
	mu     sync.RWMutex
	tables map[string]*domain.Table
	byName map[string]string
}

// NewTableRegistry creates an empty table registry.
func NewTableRegistry() *TableRegistry {
	return &TableRegistry{
		tables: make(map[string]*domain.Table),
		byName: make(map[string]string),
	}
}

// Create validates the definition and registers a new table. All violations
// are collected before anything is created, so a response can carry several
// problems at once.
func (r *TableRegistry) Create(name string, columns []domain.Column) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var problems []domain.Problem
	if _, taken := r.byName[name]; taken {
		problems = append(problems, domain.NewProblem(msgTableNameTaken))
	}
	seen := make(map[string]int, len(columns))
	for _, c := range columns {
		seen[c.Name]++
	}
	// One problem per duplicated name, in first-occurrence order.
	reported := make(map[string]bool)
	for _, c := range columns {
		if seen[c.Name] > 1 && !reported[c.Name] {
			reported[c.Name] = true
			problems = append(problems, domain.NewProblemCtx(msgDuplicateColumns, "Name: "+c.Name))
		}
	}
	if len(problems) > 0 {
		return "", domain.ErrProblems(problems)
	}

	t := &domain.Table{
		ID:      domain.NewID(),
		Name:    name,
		Columns: make([]*domain.ColumnVector, len(columns)),
	}
	for i, c := range columns {
		t.Columns[i] = domain.NewColumnVector(c)
	}
	r.tables[t.ID] = t
	r.byName[name] = t.ID
	return t.ID, nil
}

// TableDetail is the read view of a table, copied under the lock.
type TableDetail struct {
	ID       string
	Name     string
	Columns  []domain.Column
	RowCount int
}

// Detail returns the table's id, name, schema, and row count. Everything is
// copied while the lock is held so a reader never observes a half-applied
// append.
func (r *TableRegistry) Detail(id string) (TableDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[id]
	if !ok {
		return TableDetail{}, domain.ErrNotFound(msgTableIDNotFound)
	}
	return TableDetail{
		ID:       t.ID,
		Name:     t.Name,
		Columns:  t.Schema(),
		RowCount: t.NumRows,
	}, nil
}

// ResolveName returns the table with the given name, or a problem suitable
// for failing a query when the name is unknown.
func (r *TableRegistry) ResolveName(name string) (*domain.Table, *domain.Problem) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		p := domain.NewProblemCtx(msgTableNameNotFound, name)
		return nil, &p
	}
	return r.tables[id], nil
}

// Delete removes the table and frees its name for reuse.
func (r *TableRegistry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tables[id]
	if !ok {
		return domain.ErrNotFound(msgTableIDNotFound)
	}
	delete(r.tables, id)
	delete(r.byName, t.Name)
	return nil
}

// TableSummary is the listing view of a table.
type TableSummary struct {
	ID   string
	Name string
}

// List returns summaries of all live tables.
func (r *TableRegistry) List() []TableSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TableSummary, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, TableSummary{ID: t.ID, Name: t.Name})
	}
	return out
}

// Snapshot returns the schema and a deep copy of the rows of the table with
// the given name. Used by read queries so result materialization never holds
// the registry lock.
func (r *TableRegistry) Snapshot(name string) (*domain.TableResult, *domain.Problem) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		p := domain.NewProblemCtx(msgTableNameNotFound, name)
		return nil, &p
	}
	t := r.tables[id]
	return &domain.TableResult{Columns: t.SnapshotColumns(), RowCount: t.NumRows}, nil
}

// SchemaByName returns a copy of the named table's schema.
func (r *TableRegistry) SchemaByName(name string) ([]domain.Column, *domain.Problem) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		p := domain.NewProblemCtx(msgTableNameNotFound, name)
		return nil, &p
	}
	return r.tables[id].Schema(), nil
}

// AppendRows commits fully coerced vectors to the named table. Vectors must
// be in schema order and all of length n; commit is all-or-nothing. Returns a
// problem if the table disappeared since planning.
func (r *TableRegistry) AppendRows(name string, vectors []*domain.ColumnVector, n int) *domain.Problem {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byName[name]
	if !ok {
		p := domain.NewProblemCtx(msgTableNameNotFound, name)
		return &p
	}
	t := r.tables[id]
	if len(vectors) != len(t.Columns) {
		p := domain.NewProblem("Internal error: column count changed during copy")
		return &p
	}
	for i, v := range vectors {
		if v.Len() != n || v.Name != t.Columns[i].Name || v.Type != t.Columns[i].Type {
			p := domain.NewProblem("Internal error: table schema changed during copy")
			return &p
		}
	}
	for i, v := range vectors {
		dst := t.Columns[i]
		if dst.Type == domain.TypeInt64 {
			dst.Ints = append(dst.Ints, v.Ints...)
		} else {
			dst.Strs = append(dst.Strs, v.Strs...)
		}
	}
	t.NumRows += n
	return nil
}

// Export returns deep copies of all live tables, for checkpointing.
func (r *TableRegistry) Export() []*domain.Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Table, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, &domain.Table{
			ID:      t.ID,
			Name:    t.Name,
			NumRows: t.NumRows,
			Columns: t.SnapshotColumns(),
		})
	}
	return out
}

// Restore replaces the registry contents with the given tables.
func (r *TableRegistry) Restore(tables []*domain.Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = make(map[string]*domain.Table, len(tables))
	r.byName = make(map[string]string, len(tables))
	for _, t := range tables {
		r.tables[t.ID] = t
		r.byName[t.Name] = t.ID
	}
}
