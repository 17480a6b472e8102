package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minilake/internal/domain"
)

func destSchema() []domain.Column {
	return []domain.Column{
		{Name: "c1", Type: domain.TypeInt64},
		{Name: "c2", Type: domain.TypeVarchar},
	}
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCopyCSV_NoMapping(t *testing.T) {
	t.Parallel()
	path := writeCSV(t, "10,abc\n30,def\n")

	vectors, rows, problem := CopyCSV(destSchema(), path, nil, false)
	require.Nil(t, problem)
	assert.Equal(t, 2, rows)
	require.Len(t, vectors, 2)
	assert.Equal(t, []int64{10, 30}, vectors[0].Ints)
	assert.Equal(t, []string{"abc", "def"}, vectors[1].Strs)
}

func TestCopyCSV_FileMissing(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "absent.csv")

	_, _, problem := CopyCSV(destSchema(), path, nil, false)
	require.NotNil(t, problem)
	assert.Equal(t, "File does not exist", problem.Error)
	require.NotNil(t, problem.Context)
	assert.Equal(t, path, *problem.Context)
}

func TestCopyCSV_WidthMismatchWithoutMapping(t *testing.T) {
	t.Parallel()
	path := writeCSV(t, "10,abc,20\n")

	_, _, problem := CopyCSV(destSchema(), path, nil, false)
	require.NotNil(t, problem)
	assert.Equal(t,
		"Mismatch: Table has 2 columns, but CSV has 3. Without mapping, counts must match exactly.",
		problem.Error)
}

func TestCopyCSV_MappingUnknownColumn(t *testing.T) {
	t.Parallel()
	path := writeCSV(t, "10,abc\n")

	_, _, problem := CopyCSV(destSchema(), path, []string{"c1", "nope"}, false)
	require.NotNil(t, problem)
	assert.Equal(t,
		"Mapping references column 'nope', which does not exist in table",
		problem.Error)
}

func TestCopyCSV_MappingLengthMismatch(t *testing.T) {
	t.Parallel()
	// CSV width is irrelevant here: the mapping itself is malformed.
	path := writeCSV(t, "10\n")

	_, _, problem := CopyCSV(destSchema(), path, []string{"c1"}, false)
	require.NotNil(t, problem)
	assert.Equal(t, "Mapping have different number of rows then destination table", problem.Error)
}

func TestCopyCSV_MappingNameCheckedBeforeLength(t *testing.T) {
	t.Parallel()
	path := writeCSV(t, "10,abc\n")

	_, _, problem := CopyCSV(destSchema(), path, []string{"nope"}, false)
	require.NotNil(t, problem)
	assert.Equal(t,
		"Mapping references column 'nope', which does not exist in table",
		problem.Error)
}

func TestCopyCSV_MappingDuplicateName(t *testing.T) {
	t.Parallel()
	// A repeated name would leave some destination column without a CSV
	// source, so it is rejected outright.
	path := writeCSV(t, "10,abc\n")

	_, _, problem := CopyCSV(destSchema(), path, []string{"c1", "c1"}, false)
	require.NotNil(t, problem)
	assert.Equal(t,
		"Mapping references column 'c1' more than once",
		problem.Error)
}

func TestCopyCSV_TooNarrowForMapping(t *testing.T) {
	t.Parallel()
	path := writeCSV(t, "10\n20\n")

	_, _, problem := CopyCSV(destSchema(), path, []string{"c2", "c1"}, false)
	require.NotNil(t, problem)
	assert.Equal(t,
		"CSV too narrow: Mapping requires 2 columns, but CSV only has 1.",
		problem.Error)
}

func TestCopyCSV_MappingReorders(t *testing.T) {
	t.Parallel()
	// CSV order is (varchar, int); mapping routes each CSV column to its
	// destination by name.
	path := writeCSV(t, "abc,10\ndef,30\n")

	vectors, rows, problem := CopyCSV(destSchema(), path, []string{"c2", "c1"}, false)
	require.Nil(t, problem)
	assert.Equal(t, 2, rows)
	assert.Equal(t, []int64{10, 30}, vectors[0].Ints)
	assert.Equal(t, []string{"abc", "def"}, vectors[1].Strs)
}

func TestCopyCSV_TypeError(t *testing.T) {
	t.Parallel()
	path := writeCSV(t, "10,abc\nnot-a-number,def\n")

	_, _, problem := CopyCSV(destSchema(), path, nil, false)
	require.NotNil(t, problem)
	assert.Equal(t,
		"Type Error at Row 2, Column 'c1': Expected INT64, got 'not-a-number'",
		problem.Error)
}

func TestCopyCSV_TypeErrorQuotesRawText(t *testing.T) {
	t.Parallel()
	// Parsing trims whitespace, so " 10 " coerces; "12x" fails and the raw
	// text appears untrimmed in the message.
	path := writeCSV(t, " 10 ,abc\n 12x,def\n")

	_, _, problem := CopyCSV(destSchema(), path, nil, false)
	require.NotNil(t, problem)
	assert.Equal(t,
		"Type Error at Row 2, Column 'c1': Expected INT64, got ' 12x'",
		problem.Error)
}

func TestCopyCSV_Header(t *testing.T) {
	t.Parallel()
	path := writeCSV(t, "id,name\n10,abc\n")

	vectors, rows, problem := CopyCSV(destSchema(), path, nil, true)
	require.Nil(t, problem)
	assert.Equal(t, 1, rows)
	assert.Equal(t, []int64{10}, vectors[0].Ints)
	assert.Equal(t, []string{"abc"}, vectors[1].Strs)
}

func TestCopyCSV_HeaderRowsAreOneIndexedFromData(t *testing.T) {
	t.Parallel()
	path := writeCSV(t, "id,name\nbad,abc\n")

	_, _, problem := CopyCSV(destSchema(), path, nil, true)
	require.NotNil(t, problem)
	assert.Equal(t,
		"Type Error at Row 1, Column 'c1': Expected INT64, got 'bad'",
		problem.Error)
}

func TestCopyCSV_EmptyFile(t *testing.T) {
	t.Parallel()
	path := writeCSV(t, "")

	vectors, rows, problem := CopyCSV(destSchema(), path, nil, false)
	require.Nil(t, problem)
	assert.Equal(t, 0, rows)
	require.Len(t, vectors, 2)
	assert.Equal(t, 0, vectors[0].Len())
}
