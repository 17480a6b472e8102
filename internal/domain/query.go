package domain

// QueryStatus is a query's position in its lifecycle. COMPLETED and FAILED are
// terminal; no transition leaves them.
type QueryStatus string

const (
	StatusCreated   QueryStatus = "CREATED"
	StatusPlanning  QueryStatus = "PLANNING"
	StatusRunning   QueryStatus = "RUNNING"
	StatusCompleted QueryStatus = "COMPLETED"
	StatusFailed    QueryStatus = "FAILED"
)

// Terminal reports whether s is a terminal status.
func (s QueryStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// QueryDefinition is the closed union of query variants. Only SelectQuery and
// CopyQuery implement it.
type QueryDefinition interface {
	isQueryDefinition()
}

// SelectQuery reads all rows of a table by name.
type SelectQuery struct {
	TableName string
}

func (SelectQuery) isQueryDefinition() {}

// CopyQuery copies a CSV file into a table. DestinationColumns, when present,
// positionally maps CSV columns to destination column names. HasHeader marks
// the first CSV record as a header row to skip.
type CopyQuery struct {
	SourceFilepath       string
	DestinationTableName string
	DestinationColumns   []string
	HasHeader            bool
}

func (CopyQuery) isQueryDefinition() {}

// TableResult is one entry of a query's result set: a schema-typed batch of
// rows held column-major.
type TableResult struct {
	Columns  []*ColumnVector
	RowCount int
}

// Query is a unit of asynchronous work plus its terminal artifacts. Exactly
// one of Result/Problems is populated once Status is terminal.
type Query struct {
	ID         string
	Definition QueryDefinition
	Status     QueryStatus
	Result     []TableResult
	Problems   []Problem
}
