// Package app provides application-level wiring: registries, engine,
// checkpointer, and the HTTP handler built from a loaded config.
package app

import (
	"log/slog"

	"minilake/internal/api"
	"minilake/internal/config"
	"minilake/internal/engine"
	"minilake/internal/metastore"
)

// App holds the fully wired application.
type App struct {
	Tables       *metastore.TableRegistry
	Queries      *metastore.QueryRegistry
	Engine       *engine.Engine
	Checkpointer *metastore.Checkpointer
	Handler      *api.Handler
}

// New wires the registries, engine, checkpointer, and API handler.
func New(cfg *config.Config, logger *slog.Logger) *App {
	tables := metastore.NewTableRegistry()
	queries := metastore.NewQueryRegistry()
	eng := engine.New(tables, queries, cfg.Workers, cfg.QueueSize, logger)
	ckpt := metastore.NewCheckpointer(cfg.DataDir, tables, queries, logger)
	handler := api.NewHandler(tables, queries, eng, logger)

	return &App{
		Tables:       tables,
		Queries:      queries,
		Engine:       eng,
		Checkpointer: ckpt,
		Handler:      handler,
	}
}
