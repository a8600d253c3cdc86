package history

import (
	"fmt"

	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/ports"
)

// Open returns the store selected by settings.
func Open(settings domain.HistorySettings) (ports.HistoryStore, error) {
	switch settings.Backend {
	case "", domain.HistoryBackendFile:
		return NewFileStore(settings.Path), nil
	case domain.HistoryBackendSQLite:
		return NewSQLiteStore(settings.Path)
	default:
		return nil, fmt.Errorf("unknown history backend %q", settings.Backend)
	}
}
