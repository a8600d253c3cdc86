package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for config and history files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultDispatchTimeout bounds a single dispatched command
	DefaultDispatchTimeout = 2 * time.Minute
	// DefaultQueryTimeout bounds live context queries outside completion
	DefaultQueryTimeout = 5 * time.Second
	// DefaultCompletionTimeout bounds live queries made while completing
	DefaultCompletionTimeout = 750 * time.Millisecond
)

// History constants
const (
	// HistoryBackendFile stores newline-delimited lines
	HistoryBackendFile = "file"
	// HistoryBackendSQLite stores lines in a sqlite database
	HistoryBackendSQLite = "sqlite"
	// DefaultHistoryLimit is the default number of history lines to display
	DefaultHistoryLimit = 20
	// DefaultHistoryMaxEntries is how many lines are seeded into the line editor
	DefaultHistoryMaxEntries = 1000
)

// Backend defaults
const (
	DefaultBackendCommand = "excel-cli"
	DefaultPrompt         = "sheetsh"
	DefaultDocumentOption = "workbook-name"
)
