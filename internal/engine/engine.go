// Package engine drives the asynchronous query lifecycle: submission
// enqueues, a worker pool plans and executes, pollers observe status through
// the query registry.
package engine

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"minilake/internal/domain"
	"minilake/internal/metastore"
)

// Engine owns the work queue and the workers.
type Engine struct {
	tables  *metastore.TableRegistry
	queries *metastore.QueryRegistry
	queue   chan string
	workers int
	logger  *slog.Logger
}

// New creates an engine with the given worker count and queue capacity.
func New(tables *metastore.TableRegistry, queries *metastore.QueryRegistry, workers, queueSize int, logger *slog.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 64
	}
	return &Engine{
		tables:  tables,
		queries: queries,
		queue:   make(chan string, queueSize),
		workers: workers,
		logger:  logger.With("component", "engine"),
	}
}

// Submit validates the definition's structural shape, registers a CREATED
// query, and enqueues it. Name resolution and file checks are deferred to
// planning and surface as a FAILED query, not a submission error.
func (e *Engine) Submit(def domain.QueryDefinition) (string, error) {
	if err := validateShape(def); err != nil {
		return "", err
	}
	id := e.queries.Add(def)
	select {
	case e.queue <- id:
	default:
		// Queue full: fail fast rather than block the submission path.
		e.queries.Fail(id, domain.NewProblem("Query queue is full"))
	}
	e.logger.Info("query submitted", "query_id", id)
	return id, nil
}

// Run consumes the queue until ctx is cancelled. Queries still queued at
// shutdown stay CREATED and are failed by the restore pass on next startup.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case id := <-e.queue:
					e.process(id)
				}
			}
		})
	}
	return g.Wait()
}

// process drives one query to a terminal state. Panics are contained so a bad
// query can never take the service down.
func (e *Engine) process(id string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("query execution panicked", "query_id", id, "panic", r)
			e.queries.Fail(id, domain.NewProblem("Internal error during query execution"))
		}
	}()

	q, err := e.queries.Get(id)
	if err != nil {
		return
	}

	e.queries.SetStatus(id, domain.StatusPlanning)
	switch def := q.Definition.(type) {
	case domain.SelectQuery:
		e.runSelect(id, def)
	case domain.CopyQuery:
		e.runCopy(id, def)
	default:
		e.queries.Fail(id, domain.NewProblem("Unknown query definition"))
	}
}

func validateShape(def domain.QueryDefinition) error {
	var problems []domain.Problem
	switch d := def.(type) {
	case domain.SelectQuery:
		if d.TableName == "" {
			problems = append(problems, domain.NewProblem("Select query requires a table name"))
		}
	case domain.CopyQuery:
		if d.SourceFilepath == "" {
			problems = append(problems, domain.NewProblem("Copy query requires a source filepath"))
		}
		if d.DestinationTableName == "" {
			problems = append(problems, domain.NewProblem("Copy query requires a destination table name"))
		}
	default:
		problems = append(problems, domain.NewProblem("Query definition must be select or copy"))
	}
	if len(problems) > 0 {
		return domain.ErrProblems(problems)
	}
	return nil
}
