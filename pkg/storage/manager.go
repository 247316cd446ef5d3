package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	errs "commonsfetch/pkg/errors"
)

// Manager owns one search term's output directory
type Manager struct {
	baseDir string
	dir     string
	saved   map[string]bool
	mu      sync.RWMutex
}

// NewManager ensures baseDir and baseDir/term exist. Each level is created
// with a single mkdir, so a missing parent of baseDir is an error.
func NewManager(baseDir, term string) (*Manager, error) {
	if term == "" {
		return nil, errs.New(errs.ErrorTypeFilesystem, 0, nil, "search term must not be empty")
	}

	dir := filepath.Join(baseDir, term)
	for _, d := range []string{baseDir, dir} {
		if err := mkdirOnce(d); err != nil {
			return nil, err
		}
	}

	return &Manager{
		baseDir: baseDir,
		dir:     dir,
		saved:   make(map[string]bool),
	}, nil
}

func mkdirOnce(dir string) error {
	err := os.Mkdir(dir, 0755)
	if err == nil || errors.Is(err, fs.ErrExist) {
		return nil
	}
	return errs.New(errs.ErrorTypeFilesystem, 0, err, "failed to create directory %s: %v", dir, err)
}

// FilenameFromURL returns everything after the final '/' of rawURL
func FilenameFromURL(rawURL string) string {
	return rawURL[strings.LastIndex(rawURL, "/")+1:]
}

// Save writes r to filename inside the term directory, replacing any
// existing file, and returns the final path and byte count.
func (m *Manager) Save(r io.Reader, filename string) (string, int64, error) {
	if filename == "" {
		return "", 0, errs.New(errs.ErrorTypeFilesystem, 0, nil, "empty filename")
	}

	path := filepath.Join(m.dir, filename)

	// Create temporary file first
	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return "", 0, errs.New(errs.ErrorTypeFilesystem, 0, err, "failed to create temporary file: %v", err)
	}

	n, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", 0, errs.New(errs.ErrorTypeFilesystem, 0, err, "failed to write %s: %v", filename, err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return "", 0, errs.New(errs.ErrorTypeFilesystem, 0, closeErr, "failed to close file: %v", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return "", 0, errs.New(errs.ErrorTypeFilesystem, 0, err, "failed to rename temporary file: %v", err)
	}

	m.mu.Lock()
	m.saved[filename] = true
	m.mu.Unlock()

	return path, n, nil
}

// Exists reports whether filename is already present in the term directory
func (m *Manager) Exists(filename string) bool {
	m.mu.RLock()
	seen := m.saved[filename]
	m.mu.RUnlock()
	if seen {
		return true
	}

	_, err := os.Stat(filepath.Join(m.dir, filename))
	return err == nil
}

// Dir returns the term directory
func (m *Manager) Dir() string {
	return m.dir
}

// BaseDir returns the root output directory
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// SavedCount returns the number of distinct files written by this manager
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}

// String implements fmt.Stringer
func (m *Manager) String() string {
	return fmt.Sprintf("storage(%s)", m.dir)
}
