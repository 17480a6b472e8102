package engine

import (
	"minilake/internal/domain"
	"minilake/internal/ingest"
)

// runSelect resolves the table, snapshots its rows, and completes the query
// with a single-table result set.
func (e *Engine) runSelect(id string, def domain.SelectQuery) {
	// Planning: the name must resolve against current table state.
	if _, problem := e.tables.SchemaByName(def.TableName); problem != nil {
		e.queries.Fail(id, *problem)
		return
	}

	e.queries.SetStatus(id, domain.StatusRunning)
	snapshot, problem := e.tables.Snapshot(def.TableName)
	if problem != nil {
		// Table deleted between planning and execution.
		e.queries.Fail(id, *problem)
		return
	}
	e.queries.Complete(id, []domain.TableResult{*snapshot})
	e.logger.Info("select completed", "query_id", id, "table", def.TableName, "rows", snapshot.RowCount)
}

// runCopy resolves the destination schema, runs the CSV pipeline off the
// registry lock, and commits the coerced vectors atomically.
func (e *Engine) runCopy(id string, def domain.CopyQuery) {
	schema, problem := e.tables.SchemaByName(def.DestinationTableName)
	if problem != nil {
		e.queries.Fail(id, *problem)
		return
	}

	e.queries.SetStatus(id, domain.StatusRunning)
	vectors, rows, problem := ingest.CopyCSV(schema, def.SourceFilepath, def.DestinationColumns, def.HasHeader)
	if problem != nil {
		e.queries.Fail(id, *problem)
		return
	}
	if problem := e.tables.AppendRows(def.DestinationTableName, vectors, rows); problem != nil {
		e.queries.Fail(id, *problem)
		return
	}

	// The result set mirrors what was appended so callers can observe the
	// copied row count and data.
	e.queries.Complete(id, []domain.TableResult{{Columns: vectors, RowCount: rows}})
	e.logger.Info("copy completed", "query_id", id, "table", def.DestinationTableName, "rows", rows)
}
