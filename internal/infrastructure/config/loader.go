package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	appconfig "github.com/doeshing/sheetsh/internal/application/config"
	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/pkg/filesystem"
	"github.com/doeshing/sheetsh/internal/ports"
)

// FileLoader loads YAML configuration from ~/.sheetsh/config.yaml (overridable via SHEETSH_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := writeConfig(path, cfg); err != nil {
				return domain.Config{}, err
			}
			return cfg, nil
		}
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}

	cfg = hydrateDefaults(cfg)
	if err := appconfig.Validate(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Save validates and writes cfg.
func (l *FileLoader) Save(cfg domain.Config) error {
	if err := appconfig.Validate(cfg); err != nil {
		return err
	}
	path := l.Path()
	if err := ensureConfigDir(path); err != nil {
		return err
	}
	return writeConfig(path, cfg)
}

// Path returns the resolved config file path.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv("SHEETSH_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.SheetshDir(), "config.yaml")
}

func ensureConfigDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, domain.DirectoryPermissions)
}

func writeConfig(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Backend: domain.BackendSettings{
			Command:         domain.DefaultBackendCommand,
			DispatchTimeout: domain.DefaultDispatchTimeout.String(),
			QueryTimeout:    domain.DefaultQueryTimeout.String(),
			Queries: domain.QueryCommands{
				ListDocuments:  "workbook-list",
				ListSheets:     "sheet-list",
				ActiveDocument: "workbook-active",
				ActiveSheet:    "sheet-active",
				DocumentOption: domain.DefaultDocumentOption,
			},
		},
		Shell: domain.ShellSettings{
			Prompt:            domain.DefaultPrompt,
			AutoDetect:        true,
			CompletionTimeout: domain.DefaultCompletionTimeout.String(),
			Color:             true,
		},
		History: domain.HistorySettings{
			Backend:    domain.HistoryBackendFile,
			Path:       filepath.Join(filesystem.SheetshDir(), "history"),
			MaxEntries: domain.DefaultHistoryMaxEntries,
		},
	}
}

// hydrateDefaults fills fields an older or hand-written file left out.
func hydrateDefaults(cfg domain.Config) domain.Config {
	def := DefaultConfig()
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = def.ConfigFormatVersion
	}
	if cfg.Backend.Command == "" {
		cfg.Backend.Command = def.Backend.Command
	}
	if cfg.Backend.DispatchTimeout == "" {
		cfg.Backend.DispatchTimeout = def.Backend.DispatchTimeout
	}
	if cfg.Backend.QueryTimeout == "" {
		cfg.Backend.QueryTimeout = def.Backend.QueryTimeout
	}
	q := &cfg.Backend.Queries
	if q.ListDocuments == "" {
		q.ListDocuments = def.Backend.Queries.ListDocuments
	}
	if q.ListSheets == "" {
		q.ListSheets = def.Backend.Queries.ListSheets
	}
	if q.ActiveDocument == "" {
		q.ActiveDocument = def.Backend.Queries.ActiveDocument
	}
	if q.ActiveSheet == "" {
		q.ActiveSheet = def.Backend.Queries.ActiveSheet
	}
	if q.DocumentOption == "" {
		q.DocumentOption = def.Backend.Queries.DocumentOption
	}
	if cfg.Shell.Prompt == "" {
		cfg.Shell.Prompt = def.Shell.Prompt
	}
	if cfg.Shell.CompletionTimeout == "" {
		cfg.Shell.CompletionTimeout = def.Shell.CompletionTimeout
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = def.History.Backend
	}
	if cfg.History.Path == "" {
		cfg.History.Path = def.History.Path
	}
	cfg.History.Path = expandPath(cfg.History.Path)
	if cfg.History.MaxEntries == 0 {
		cfg.History.MaxEntries = def.History.MaxEntries
	}
	if cfg.Catalog.File != "" {
		cfg.Catalog.File = expandPath(cfg.Catalog.File)
	}
	return cfg
}

func expandPath(path string) string {
	return filesystem.ExpandHome(path)
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
