package metastore

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minilake/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckpointer_RoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	tables := NewTableRegistry()
	queries := NewQueryRegistry()
	_, err := tables.Create("t", twoColSchema())
	require.NoError(t, err)
	require.Nil(t, tables.AppendRows("t", []*domain.ColumnVector{
		{Column: domain.Column{Name: "c1", Type: domain.TypeInt64}, Ints: []int64{10, 30}},
		{Column: domain.Column{Name: "c2", Type: domain.TypeVarchar}, Strs: []string{"abc", "def"}},
	}, 2))

	doneID := queries.Add(domain.SelectQuery{TableName: "t"})
	queries.Complete(doneID, intResult(1, 2))
	failedID := queries.Add(domain.CopyQuery{SourceFilepath: "x.csv", DestinationTableName: "t"})
	queries.Fail(failedID, domain.NewProblemCtx("File does not exist", "x.csv"))
	pendingID := queries.Add(domain.SelectQuery{TableName: "t"})

	ckpt := NewCheckpointer(dir, tables, queries, discardLogger())
	require.NoError(t, ckpt.Save())

	// Restore into fresh registries.
	tables2 := NewTableRegistry()
	queries2 := NewQueryRegistry()
	ckpt2 := NewCheckpointer(dir, tables2, queries2, discardLogger())
	require.NoError(t, ckpt2.Load())

	snap, problem := tables2.Snapshot("t")
	require.Nil(t, problem)
	assert.Equal(t, 2, snap.RowCount)
	assert.Equal(t, []int64{10, 30}, snap.Columns[0].Ints)
	assert.Equal(t, []string{"abc", "def"}, snap.Columns[1].Strs)

	done, err := queries2.Get(doneID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)
	require.Len(t, done.Result, 1)
	assert.Equal(t, []int64{1, 2}, done.Result[0].Columns[0].Ints)

	failed, err := queries2.Get(failedID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, failed.Status)
	require.Len(t, failed.Problems, 1)
	assert.Equal(t, "File does not exist", failed.Problems[0].Error)

	// The pending query was interrupted and fails on restore.
	pending, err := queries2.Get(pendingID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, pending.Status)
	require.Len(t, pending.Problems, 1)

	// Definitions survive the round trip.
	def, ok := failed.Definition.(domain.CopyQuery)
	require.True(t, ok)
	assert.Equal(t, "x.csv", def.SourceFilepath)
}

func TestCheckpointer_LoadMissingStartsEmpty(t *testing.T) {
	t.Parallel()
	tables := NewTableRegistry()
	queries := NewQueryRegistry()
	ckpt := NewCheckpointer(t.TempDir(), tables, queries, discardLogger())

	require.NoError(t, ckpt.Load())
	assert.Empty(t, tables.List())
	assert.Empty(t, queries.List())
}

func TestCheckpointer_SaveOverwrites(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tables := NewTableRegistry()
	queries := NewQueryRegistry()
	ckpt := NewCheckpointer(dir, tables, queries, discardLogger())

	id, err := tables.Create("t", twoColSchema())
	require.NoError(t, err)
	require.NoError(t, ckpt.Save())

	require.NoError(t, tables.Delete(id))
	_, err = tables.Create("u", twoColSchema())
	require.NoError(t, err)
	require.NoError(t, ckpt.Save())

	tables2 := NewTableRegistry()
	queries2 := NewQueryRegistry()
	require.NoError(t, NewCheckpointer(dir, tables2, queries2, discardLogger()).Load())

	list := tables2.List()
	require.Len(t, list, 1)
	assert.Equal(t, "u", list[0].Name)
}
