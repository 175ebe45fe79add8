package catalogfile

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/starford/semestra/internal/models"
	"github.com/starford/semestra/internal/remote"
)

// Source serves the modules of one catalog file. It satisfies
// remote.ModuleLister so the record API can list the catalog.
type Source struct {
	path string

	mu      sync.RWMutex
	modules []models.Module
}

var _ remote.ModuleLister = (*Source)(nil)

// Open reads and parses the catalog at path.
func Open(path string) (*Source, error) {
	s := &Source{path: path}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the catalog file location.
func (s *Source) Path() string {
	return s.path
}

// Reload re-reads the file. On error the previous catalog stays in place.
// It returns the number of modules now served.
func (s *Source) Reload() (int, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0, fmt.Errorf("catalogfile: read %s: %w", s.path, err)
	}
	mods, err := Parse(data)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.modules = mods
	s.mu.Unlock()
	return len(mods), nil
}

// FetchModules returns a copy of the current catalog.
func (s *Source) FetchModules(_ context.Context) ([]models.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Module, len(s.modules))
	for i, m := range s.modules {
		m.FocusAreaTags = append([]string(nil), m.FocusAreaTags...)
		out[i] = m
	}
	return out, nil
}
