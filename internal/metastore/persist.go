package metastore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/robfig/cron/v3"

	"minilake/internal/domain"
	"minilake/internal/tablefile"
)

const manifestName = "manifest.json"

// Checkpointer writes the registries to a data directory and restores them at
// startup: a manifest JSON plus one columnar file per table. The format
// carries no cross-version guarantee.
type Checkpointer struct {
	dir     string
	tables  *TableRegistry
	queries *QueryRegistry
	logger  *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewCheckpointer creates a checkpointer rooted at dir.
func NewCheckpointer(dir string, tables *TableRegistry, queries *QueryRegistry, logger *slog.Logger) *Checkpointer {
	return &Checkpointer{
		dir:     dir,
		tables:  tables,
		queries: queries,
		logger:  logger.With("component", "checkpointer"),
	}
}

type manifest struct {
	Version int             `json:"version"`
	Tables  []manifestTable `json:"tables"`
	Queries []queryRecord   `json:"queries"`
}

type manifestTable struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	File string `json:"file"`
}

type queryRecord struct {
	ID       string           `json:"id"`
	Status   string           `json:"status"`
	Select   *selectRecord    `json:"select,omitempty"`
	Copy     *copyRecord      `json:"copy,omitempty"`
	Result   []resultRecord   `json:"result,omitempty"`
	Problems []domain.Problem `json:"problems,omitempty"`
}

type selectRecord struct {
	TableName string `json:"tableName"`
}

type copyRecord struct {
	SourceFilepath       string   `json:"sourceFilepath"`
	DestinationTableName string   `json:"destinationTableName"`
	DestinationColumns   []string `json:"destinationColumns,omitempty"`
	HasHeader            bool     `json:"hasHeader"`
}

type resultRecord struct {
	RowCount int            `json:"rowCount"`
	Columns  []columnRecord `json:"columns"`
}

type columnRecord struct {
	Name string   `json:"name"`
	Type string   `json:"type"`
	Ints []int64  `json:"ints,omitempty"`
	Strs []string `json:"strs,omitempty"`
}

// Save writes a full checkpoint. The manifest is written last via rename so a
// crash mid-save leaves the previous checkpoint loadable.
func (c *Checkpointer) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	m := manifest{Version: 1}
	for _, t := range c.tables.Export() {
		file := t.ID + ".mlcf"
		if err := tablefile.Write(filepath.Join(c.dir, file), t); err != nil {
			return fmt.Errorf("write table %q: %w", t.Name, err)
		}
		m.Tables = append(m.Tables, manifestTable{ID: t.ID, Name: t.Name, File: file})
	}
	for _, q := range c.queries.Export() {
		m.Queries = append(m.Queries, toQueryRecord(q))
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	tmp := filepath.Join(c.dir, manifestName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(c.dir, manifestName)); err != nil {
		return fmt.Errorf("rename manifest: %w", err)
	}
	c.logger.Info("checkpoint saved", "tables", len(m.Tables), "queries", len(m.Queries))
	return nil
}

// Load restores the registries from the last checkpoint. A missing manifest
// starts empty; a corrupt one is logged and also starts empty.
func (c *Checkpointer) Load() error {
	data, err := os.ReadFile(filepath.Join(c.dir, manifestName))
	if os.IsNotExist(err) {
		c.logger.Info("no checkpoint found, starting empty", "dir", c.dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		c.logger.Warn("corrupt manifest, starting empty", "error", err)
		return nil
	}

	var tables []*domain.Table
	for _, mt := range m.Tables {
		t, err := tablefile.Read(filepath.Join(c.dir, mt.File))
		if err != nil {
			c.logger.Warn("skipping unreadable table file", "table", mt.Name, "error", err)
			continue
		}
		tables = append(tables, t)
	}
	c.tables.Restore(tables)

	queries := make([]domain.Query, 0, len(m.Queries))
	for _, qr := range m.Queries {
		queries = append(queries, fromQueryRecord(qr))
	}
	c.queries.Restore(queries)

	c.logger.Info("checkpoint loaded", "tables", len(tables), "queries", len(queries))
	return nil
}

// Start schedules periodic checkpoints on the given cron spec. An empty spec
// disables scheduling.
func (c *Checkpointer) Start(spec string) error {
	if spec == "" {
		return nil
	}
	cr := cron.New()
	_, err := cr.AddFunc(spec, func() {
		if err := c.Save(); err != nil {
			c.logger.Error("scheduled checkpoint failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid checkpoint spec %q: %w", spec, err)
	}
	cr.Start()
	c.mu.Lock()
	c.cron = cr
	c.mu.Unlock()
	return nil
}

// Stop halts scheduled checkpoints and waits for a running one to finish.
func (c *Checkpointer) Stop() {
	c.mu.Lock()
	cr := c.cron
	c.cron = nil
	c.mu.Unlock()
	if cr != nil {
		<-cr.Stop().Done()
	}
}

func toQueryRecord(q domain.Query) queryRecord {
	rec := queryRecord{
		ID:       q.ID,
		Status:   string(q.Status),
		Problems: q.Problems,
	}
	switch def := q.Definition.(type) {
	case domain.SelectQuery:
		rec.Select = &selectRecord{TableName: def.TableName}
	case domain.CopyQuery:
		rec.Copy = &copyRecord{
			SourceFilepath:       def.SourceFilepath,
			DestinationTableName: def.DestinationTableName,
			DestinationColumns:   def.DestinationColumns,
			HasHeader:            def.HasHeader,
		}
	}
	for _, tr := range q.Result {
		rr := resultRecord{RowCount: tr.RowCount}
		for _, v := range tr.Columns {
			rr.Columns = append(rr.Columns, columnRecord{
				Name: v.Name,
				Type: string(v.Type),
				Ints: v.Ints,
				Strs: v.Strs,
			})
		}
		rec.Result = append(rec.Result, rr)
	}
	return rec
}

func fromQueryRecord(rec queryRecord) domain.Query {
	q := domain.Query{
		ID:       rec.ID,
		Status:   domain.QueryStatus(rec.Status),
		Problems: rec.Problems,
	}
	switch {
	case rec.Select != nil:
		q.Definition = domain.SelectQuery{TableName: rec.Select.TableName}
	case rec.Copy != nil:
		q.Definition = domain.CopyQuery{
			SourceFilepath:       rec.Copy.SourceFilepath,
			DestinationTableName: rec.Copy.DestinationTableName,
			DestinationColumns:   rec.Copy.DestinationColumns,
			HasHeader:            rec.Copy.HasHeader,
		}
	}
	for _, rr := range rec.Result {
		tr := domain.TableResult{RowCount: rr.RowCount}
		for _, cr := range rr.Columns {
			tr.Columns = append(tr.Columns, &domain.ColumnVector{
				Column: domain.Column{Name: cr.Name, Type: domain.ColumnType(cr.Type)},
				Ints:   cr.Ints,
				Strs:   cr.Strs,
			})
		}
		q.Result = append(q.Result, tr)
	}
	return q
}
