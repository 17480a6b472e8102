package metastore

import (
	"sync"

	"minilake/internal/domain"
)

const (
	msgQueryNotFound       = "Couldn't find a query of given ID"
	msgResultUnavailable   = "Result for this query is not available"
	msgProblemsUnavailable = "Error for this query is not available"
)

// QueryRegistry owns the set of submitted queries and their terminal
// artifacts. Queries are never deleted.
type QueryRegistry struct {
	mu      sync.RWMutex
	queries map[string]*domain.Query
	order   []string
}

// NewQueryRegistry creates an empty query registry.
func NewQueryRegistry() *QueryRegistry {
	return &QueryRegistry{queries: make(map[string]*domain.Query)}
}

// Add stores a fresh CREATED query for the definition and returns its id.
func (r *QueryRegistry) Add(def domain.QueryDefinition) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := &domain.Query{
		ID:         domain.NewID(),
		Definition: def,
		Status:     domain.StatusCreated,
	}
	r.queries[q.ID] = q
	r.order = append(r.order, q.ID)
	return q.ID
}

// Get returns a copy of the query with the given id. The copy shares result
// vectors, which are immutable once the query is terminal.
func (r *QueryRegistry) Get(id string) (domain.Query, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.queries[id]
	if !ok {
		return domain.Query{}, domain.ErrNotFound(msgQueryNotFound)
	}
	return *q, nil
}

// QuerySummary is the listing view of a query.
type QuerySummary struct {
	ID     string
	Status domain.QueryStatus
}

// List returns summaries of all submitted queries in submission order.
func (r *QueryRegistry) List() []QuerySummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]QuerySummary, 0, len(r.order))
	for _, id := range r.order {
		q := r.queries[id]
		out = append(out, QuerySummary{ID: q.ID, Status: q.Status})
	}
	return out
}

// SetStatus advances a non-terminal query to the given status. Transitions
// out of a terminal state are ignored.
func (r *QueryRegistry) SetStatus(id string, status domain.QueryStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queries[id]
	if !ok || q.Status.Terminal() {
		return
	}
	q.Status = status
}

// Complete marks the query COMPLETED with the given result set.
func (r *QueryRegistry) Complete(id string, result []domain.TableResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queries[id]
	if !ok || q.Status.Terminal() {
		return
	}
	q.Status = domain.StatusCompleted
	q.Result = result
}

// Fail marks the query FAILED with the given problems.
func (r *QueryRegistry) Fail(id string, problems ...domain.Problem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queries[id]
	if !ok || q.Status.Terminal() {
		return
	}
	q.Status = domain.StatusFailed
	q.Problems = problems
}

// Result returns the result set of a COMPLETED query. rowLimit caps the rows
// returned per entry; negative means no limit. A known but non-completed
// query is reported distinctly from an unknown id.
func (r *QueryRegistry) Result(id string, rowLimit int) ([]domain.TableResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.queries[id]
	if !ok {
		return nil, domain.ErrNotFound(msgQueryNotFound)
	}
	if q.Status != domain.StatusCompleted {
		return nil, domain.ErrNotFound(msgResultUnavailable)
	}
	out := make([]domain.TableResult, len(q.Result))
	for i, tr := range q.Result {
		n := tr.RowCount
		if rowLimit >= 0 && rowLimit < n {
			n = rowLimit
		}
		cols := make([]*domain.ColumnVector, len(tr.Columns))
		for j, v := range tr.Columns {
			cols[j] = v.Head(n)
		}
		out[i] = domain.TableResult{Columns: cols, RowCount: n}
	}
	return out, nil
}

// Problems returns the problem list of a FAILED query.
func (r *QueryRegistry) Problems(id string) ([]domain.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.queries[id]
	if !ok {
		return nil, domain.ErrNotFound(msgQueryNotFound)
	}
	if q.Status != domain.StatusFailed {
		return nil, domain.ErrNotFound(msgProblemsUnavailable)
	}
	return append([]domain.Problem(nil), q.Problems...), nil
}

// Export returns copies of all queries in submission order, for checkpointing.
func (r *QueryRegistry) Export() []domain.Query {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Query, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.queries[id])
	}
	return out
}

// Restore replaces the registry contents. Queries restored in a non-terminal
// state can never finish, so they are failed outright.
func (r *QueryRegistry) Restore(queries []domain.Query) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = make(map[string]*domain.Query, len(queries))
	r.order = make([]string, 0, len(queries))
	for i := range queries {
		q := queries[i]
		if !q.Status.Terminal() {
			q.Status = domain.StatusFailed
			q.Problems = []domain.Problem{domain.NewProblem("Query was interrupted by a service restart")}
		}
		r.queries[q.ID] = &q
		r.order = append(r.order, q.ID)
	}
}
