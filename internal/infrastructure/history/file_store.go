package history

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/ports"
)

// FileStore appends raw input lines to a newline-delimited file.
type FileStore struct {
	path    string
	mu      sync.Mutex
	next    int
	counted bool
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Append writes line and syncs it to disk before returning.
func (f *FileStore) Append(line string) (domain.HistoryEntry, error) {
	if strings.ContainsAny(line, "\r\n") {
		return domain.HistoryEntry{}, errors.New("history lines must not contain line breaks")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.counted {
		entries, err := f.read()
		if err != nil {
			return domain.HistoryEntry{}, err
		}
		f.next, f.counted = len(entries), true
	}
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return domain.HistoryEntry{}, err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	defer file.Close()
	if _, err := file.WriteString(line + "\n"); err != nil {
		return domain.HistoryEntry{}, err
	}
	if err := file.Sync(); err != nil {
		return domain.HistoryEntry{}, err
	}
	entry := domain.HistoryEntry{Line: line, Index: f.next}
	f.next++
	return entry, nil
}

// Load returns every stored line in insertion order.
func (f *FileStore) Load() ([]domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.read()
	if err != nil {
		return nil, err
	}
	f.next, f.counted = len(entries), true
	return entries, nil
}

func (f *FileStore) read() ([]domain.HistoryEntry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var entries []domain.HistoryEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		entries = append(entries, domain.HistoryEntry{Line: scanner.Text(), Index: len(entries)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history %s: %w", f.path, err)
	}
	return entries, nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Clear removes the history file.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	f.next, f.counted = 0, true
	return nil
}

var _ ports.HistoryStore = (*FileStore)(nil)
