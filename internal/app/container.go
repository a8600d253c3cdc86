package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	appconfig "github.com/doeshing/sheetsh/internal/application/config"
	"github.com/doeshing/sheetsh/internal/application/doctor"
	"github.com/doeshing/sheetsh/internal/application/shell"
	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/infrastructure/backend"
	"github.com/doeshing/sheetsh/internal/infrastructure/catalog"
	"github.com/doeshing/sheetsh/internal/infrastructure/config"
	"github.com/doeshing/sheetsh/internal/infrastructure/history"
	"github.com/doeshing/sheetsh/internal/infrastructure/translator"
	"github.com/doeshing/sheetsh/internal/pkg/logger"
	"github.com/doeshing/sheetsh/internal/ports"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config          domain.Config
	ConfigProvider  ports.ConfigProvider
	ConfigLoader    *config.FileLoader
	Logger          *logger.ZapLogger
	SessionID       string
	Registry        *backend.Registry
	Query           *backend.Query
	Translator      ports.ErrorTranslator
	HistoryStore    ports.HistoryStore
	DoctorService   *doctor.Service
	DispatchTimeout time.Duration
	QueryTimeout    time.Duration
	CompleteTimeout time.Duration
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgLoader.Path(), err)
	}

	sessionID := uuid.NewString()
	log := logger.New(verbose).With(map[string]interface{}{"session_id": sessionID})

	commands, err := catalog.Load(cfg.Catalog.File, shell.ReservedNames())
	if err != nil {
		return nil, fmt.Errorf("load command catalog: %w", err)
	}

	historyStore, err := history.Open(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	tr, err := translator.New(nil)
	if err != nil {
		return nil, err
	}

	dispatch, query, completion := appconfig.Durations(cfg)
	runner := backend.NewRunner(cfg.Backend.Command, cfg.Backend.Args, log)
	registry := backend.NewRegistry(commands, runner)
	contextQuery := backend.NewQuery(runner, cfg.Backend.Queries)

	doctorService := &doctor.Service{
		ConfigProvider: cfgLoader,
		Query:          contextQuery,
		Registry:       registry,
		History:        historyStore,
		QueryTimeout:   query,
	}

	return &Container{
		Config:          cfg,
		ConfigProvider:  cfgLoader,
		ConfigLoader:    cfgLoader,
		Logger:          log,
		SessionID:       sessionID,
		Registry:        registry,
		Query:           contextQuery,
		Translator:      tr,
		HistoryStore:    historyStore,
		DoctorService:   doctorService,
		DispatchTimeout: dispatch,
		QueryTimeout:    query,
		CompleteTimeout: completion,
	}, nil
}

// NewSession builds an interactive session over the container's adapters.
func (c *Container) NewSession(reader ports.LineReader, display ports.Display, busy ports.BusyIndicator) *shell.Session {
	return shell.NewSession(shell.Options{
		Registry:          c.Registry,
		Query:             c.Query,
		Translator:        c.Translator,
		History:           c.HistoryStore,
		Reader:            reader,
		Display:           display,
		Busy:              busy,
		Logger:            c.Logger,
		Prompt:            c.Config.Shell.Prompt,
		DispatchTimeout:   c.DispatchTimeout,
		QueryTimeout:      c.QueryTimeout,
		CompletionTimeout: c.CompleteTimeout,
		HistoryLimit:      c.Config.History.MaxEntries,
	})
}

// Close releases the history store and flushes logs.
func (c *Container) Close() error {
	if closer, ok := c.HistoryStore.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	_ = c.Logger.Sync()
	return nil
}
