// Package api exposes the service over HTTP: table management, query
// submission and polling, results, problems, and system info.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"minilake/internal/domain"
	"minilake/internal/engine"
	"minilake/internal/metastore"
)

const (
	serviceVersion   = "0.1.0"
	interfaceVersion = "1.0"
	serviceAuthor    = "minilake"
)

// Handler serves the v1 API.
type Handler struct {
	tables  *metastore.TableRegistry
	queries *metastore.QueryRegistry
	engine  *engine.Engine
	logger  *slog.Logger
	started time.Time
}

// NewHandler wires the API over the registries and the engine.
func NewHandler(tables *metastore.TableRegistry, queries *metastore.QueryRegistry, eng *engine.Engine, logger *slog.Logger) *Handler {
	return &Handler{
		tables:  tables,
		queries: queries,
		engine:  eng,
		logger:  logger.With("component", "api"),
		started: time.Now(),
	}
}

// Routes registers all v1 endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/tables", h.createTable)
		r.Get("/tables", h.listTables)
		r.Get("/tables/{tableID}", h.getTable)
		r.Delete("/tables/{tableID}", h.deleteTable)

		r.Post("/queries", h.submitQuery)
		r.Get("/queries", h.listQueries)
		r.Get("/queries/{queryID}", h.getQuery)
		r.Get("/queries/{queryID}/result", h.getResult)
		r.Get("/queries/{queryID}/problems", h.getProblems)

		r.Get("/system", h.systemInfo)
	})
}

func (h *Handler) createTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	cols, problems := toDomainColumns(req.Columns)
	if len(problems) > 0 {
		writeError(w, h.logger, domain.ErrProblems(problems))
		return
	}
	id, err := h.tables.Create(req.Name, cols)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("table created", "table_id", id, "name", req.Name)
	writeJSON(w, http.StatusOK, createTableResponse{TableID: id})
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toTableSummaries(h.tables.List()))
}

func (h *Handler) getTable(w http.ResponseWriter, r *http.Request) {
	detail, err := h.tables.Detail(chi.URLParam(r, "tableID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	cols := make([]columnDTO, 0, len(detail.Columns))
	for _, c := range detail.Columns {
		cols = append(cols, columnDTO{Name: c.Name, Type: string(c.Type)})
	}
	writeJSON(w, http.StatusOK, tableDetailDTO{
		TableID:  detail.ID,
		Name:     detail.Name,
		Columns:  cols,
		RowCount: detail.RowCount,
	})
}

func (h *Handler) deleteTable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tableID")
	if err := h.tables.Delete(id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("table deleted", "table_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) submitQuery(w http.ResponseWriter, r *http.Request) {
	var req submitQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	def, err := toDomainDefinition(req.QueryDefinition)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	id, err := h.engine.Submit(def)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, submitQueryResponse{QueryID: id})
}

func (h *Handler) listQueries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toQuerySummaries(h.queries.List()))
}

func (h *Handler) getQuery(w http.ResponseWriter, r *http.Request) {
	q, err := h.queries.Get(chi.URLParam(r, "queryID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, queryDetailDTO{
		QueryID:           q.ID,
		Status:            string(q.Status),
		QueryDefinition:   toDefinitionDTO(q.Definition),
		IsResultAvailable: q.Status == domain.StatusCompleted,
	})
}

func (h *Handler) getResult(w http.ResponseWriter, r *http.Request) {
	rowLimit := -1
	if raw := r.URL.Query().Get("rowLimit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, h.logger, domain.ErrValidation("rowLimit must be a non-negative integer"))
			return
		}
		rowLimit = n
	}
	results, err := h.queries.Result(chi.URLParam(r, "queryID"), rowLimit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultDTO(results))
}

func (h *Handler) getProblems(w http.ResponseWriter, r *http.Request) {
	problems, err := h.queries.Problems(chi.URLParam(r, "queryID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, problemsResponse{Problems: problems})
}

func (h *Handler) systemInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, systemInfoDTO{
		Version:          serviceVersion,
		InterfaceVersion: interfaceVersion,
		Author:           serviceAuthor,
		Uptime:           int64(time.Since(h.started).Seconds()),
	})
}
