package api

import (
	"minilake/internal/domain"
	"minilake/internal/metastore"
)

type columnDTO struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type createTableRequest struct {
	Name    string      `json:"name"`
	Columns []columnDTO `json:"columns"`
}

type createTableResponse struct {
	TableID string `json:"tableId"`
}

type tableSummaryDTO struct {
	TableID string `json:"tableId"`
	Name    string `json:"name"`
}

type tableDetailDTO struct {
	TableID  string      `json:"tableId"`
	Name     string      `json:"name"`
	Columns  []columnDTO `json:"columns"`
	RowCount int         `json:"rowCount"`
}

type selectDefinitionDTO struct {
	TableName string `json:"tableName"`
}

type copyDefinitionDTO struct {
	SourceFilepath       string   `json:"sourceFilepath"`
	DestinationTableName string   `json:"destinationTableName"`
	DestinationColumns   []string `json:"destinationColumns,omitempty"`
	DoesCsvContainHeader bool     `json:"doesCsvContainHeader"`
}

type queryDefinitionDTO struct {
	Select *selectDefinitionDTO `json:"select,omitempty"`
	Copy   *copyDefinitionDTO   `json:"copy,omitempty"`
}

type submitQueryRequest struct {
	QueryDefinition queryDefinitionDTO `json:"queryDefinition"`
}

type submitQueryResponse struct {
	QueryID string `json:"queryId"`
}

type querySummaryDTO struct {
	QueryID string `json:"queryId"`
	Status  string `json:"status"`
}

type queryDetailDTO struct {
	QueryID           string             `json:"queryId"`
	Status            string             `json:"status"`
	QueryDefinition   queryDefinitionDTO `json:"queryDefinition"`
	IsResultAvailable bool               `json:"isResultAvailable"`
}

type resultColumnDTO struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Values any    `json:"values"`
}

type resultEntryDTO struct {
	RowCount int               `json:"rowCount"`
	Columns  []resultColumnDTO `json:"columns"`
}

type systemInfoDTO struct {
	Version          string `json:"version"`
	InterfaceVersion string `json:"interfaceVersion"`
	Author           string `json:"author"`
	Uptime           int64  `json:"uptime"`
}

func toDefinitionDTO(def domain.QueryDefinition) queryDefinitionDTO {
	switch d := def.(type) {
	case domain.SelectQuery:
		return queryDefinitionDTO{Select: &selectDefinitionDTO{TableName: d.TableName}}
	case domain.CopyQuery:
		return queryDefinitionDTO{Copy: &copyDefinitionDTO{
			SourceFilepath:       d.SourceFilepath,
			DestinationTableName: d.DestinationTableName,
			DestinationColumns:   d.DestinationColumns,
			DoesCsvContainHeader: d.HasHeader,
		}}
	}
	return queryDefinitionDTO{}
}

// toDomainDefinition rejects requests that do not name exactly one variant.
func toDomainDefinition(dto queryDefinitionDTO) (domain.QueryDefinition, error) {
	switch {
	case dto.Select != nil && dto.Copy != nil:
		return nil, domain.ErrProblems([]domain.Problem{
			domain.NewProblem("Query definition must have exactly one of select or copy"),
		})
	case dto.Select != nil:
		return domain.SelectQuery{TableName: dto.Select.TableName}, nil
	case dto.Copy != nil:
		return domain.CopyQuery{
			SourceFilepath:       dto.Copy.SourceFilepath,
			DestinationTableName: dto.Copy.DestinationTableName,
			DestinationColumns:   dto.Copy.DestinationColumns,
			HasHeader:            dto.Copy.DoesCsvContainHeader,
		}, nil
	default:
		return nil, domain.ErrProblems([]domain.Problem{
			domain.NewProblem("Query definition must have exactly one of select or copy"),
		})
	}
}

// toDomainColumns validates structural shape before the registry sees the
// request: names non-empty, types drawn from the closed set. Registry-level
// invariants (unique table name, unique column names) are checked separately
// so all problems can be reported together.
func toDomainColumns(dtos []columnDTO) ([]domain.Column, []domain.Problem) {
	var problems []domain.Problem
	cols := make([]domain.Column, 0, len(dtos))
	for _, c := range dtos {
		if c.Name == "" {
			problems = append(problems, domain.NewProblem("Column name must not be empty"))
		}
		t := domain.ColumnType(c.Type)
		if !domain.ValidColumnType(t) {
			problems = append(problems, domain.NewProblemCtx("Column type must be INT64 or VARCHAR", "Name: "+c.Name))
		}
		cols = append(cols, domain.Column{Name: c.Name, Type: t})
	}
	return cols, problems
}

func toResultDTO(results []domain.TableResult) []resultEntryDTO {
	out := make([]resultEntryDTO, 0, len(results))
	for _, tr := range results {
		entry := resultEntryDTO{RowCount: tr.RowCount}
		for _, v := range tr.Columns {
			col := resultColumnDTO{Name: v.Name, Type: string(v.Type)}
			if v.Type == domain.TypeInt64 {
				vals := v.Ints
				if vals == nil {
					vals = []int64{}
				}
				col.Values = vals
			} else {
				vals := v.Strs
				if vals == nil {
					vals = []string{}
				}
				col.Values = vals
			}
			entry.Columns = append(entry.Columns, col)
		}
		out = append(out, entry)
	}
	return out
}

func toQuerySummaries(summaries []metastore.QuerySummary) []querySummaryDTO {
	out := make([]querySummaryDTO, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, querySummaryDTO{QueryID: s.ID, Status: string(s.Status)})
	}
	return out
}

func toTableSummaries(summaries []metastore.TableSummary) []tableSummaryDTO {
	out := make([]tableSummaryDTO, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, tableSummaryDTO{TableID: s.ID, Name: s.Name})
	}
	return out
}
