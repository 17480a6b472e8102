// Package ingest implements the CSV copy pipeline: it reads a source file,
// applies an optional column mapping, coerces cell text to the destination
// column types, and produces column vectors ready to commit, or a single
// blocking problem.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"minilake/internal/domain"
)

const msgFileMissing = "File does not exist"

// CopyCSV runs the pipeline against the destination schema. The returned
// vectors are in destination schema order and all of equal length; rowCount
// is that length. On failure the problem describes the first fatal error, and
// no partial data is returned.
func CopyCSV(dest []domain.Column, path string, mapping []string, hasHeader bool) ([]*domain.ColumnVector, int, *domain.Problem) {
	f, err := os.Open(path)
	if err != nil {
		p := domain.NewProblemCtx(msgFileMissing, path)
		return nil, 0, &p
	}
	defer f.Close()

	if p := validateMapping(dest, mapping); p != nil {
		return nil, 0, p
	}

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		p := domain.NewProblemCtx("CSV Parse Error", err.Error())
		return nil, 0, &p
	}
	if len(records) == 0 {
		return emptyVectors(dest), 0, nil
	}

	csvWidth := len(records[0])
	if mapping == nil {
		if csvWidth != len(dest) {
			p := domain.NewProblem(fmt.Sprintf(
				"Mismatch: Table has %d columns, but CSV has %d. Without mapping, counts must match exactly.",
				len(dest), csvWidth))
			return nil, 0, &p
		}
	} else if csvWidth < len(mapping) {
		p := domain.NewProblem(fmt.Sprintf(
			"CSV too narrow: Mapping requires %d columns, but CSV only has %d.",
			len(mapping), csvWidth))
		return nil, 0, &p
	}

	rows := records
	if hasHeader {
		rows = rows[1:]
	}

	// csvIndex[i] is the CSV column feeding destination column i.
	csvIndex := make([]int, len(dest))
	if mapping == nil {
		for i := range dest {
			csvIndex[i] = i
		}
	} else {
		byName := make(map[string]int, len(dest))
		for i, c := range dest {
			byName[c.Name] = i
		}
		for csvCol, name := range mapping {
			csvIndex[byName[name]] = csvCol
		}
	}

	vectors := emptyVectors(dest)
	for rowIdx, record := range rows {
		for i, v := range vectors {
			raw := record[csvIndex[i]]
			switch v.Type {
			case domain.TypeInt64:
				n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
				if err != nil {
					p := domain.NewProblem(fmt.Sprintf(
						"Type Error at Row %d, Column '%s': Expected INT64, got '%s'",
						rowIdx+1, v.Name, raw))
					return nil, 0, &p
				}
				v.Ints = append(v.Ints, n)
			default:
				v.Strs = append(v.Strs, raw)
			}
		}
	}
	return vectors, len(rows), nil
}

// validateMapping checks mapping names against the destination schema
// (existence, then uniqueness), then that the mapping covers every
// destination column. Name checks run first so the first unmatched name is
// what gets reported.
func validateMapping(dest []domain.Column, mapping []string) *domain.Problem {
	if mapping == nil {
		return nil
	}
	names := make(map[string]bool, len(dest))
	for _, c := range dest {
		names[c.Name] = true
	}
	seen := make(map[string]bool, len(mapping))
	for _, m := range mapping {
		if !names[m] {
			p := domain.NewProblem(fmt.Sprintf(
				"Mapping references column '%s', which does not exist in table", m))
			return &p
		}
		if seen[m] {
			p := domain.NewProblem(fmt.Sprintf(
				"Mapping references column '%s' more than once", m))
			return &p
		}
		seen[m] = true
	}
	if len(mapping) != len(dest) {
		p := domain.NewProblem("Mapping have different number of rows then destination table")
		return &p
	}
	return nil
}

func emptyVectors(dest []domain.Column) []*domain.ColumnVector {
	out := make([]*domain.ColumnVector, len(dest))
	for i, c := range dest {
		out[i] = domain.NewColumnVector(c)
	}
	return out
}
