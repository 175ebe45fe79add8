// Package prefs keeps the student's local profile (declared focus area,
// display details and weekly timetable) in a YAML file.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/semestra/internal/classinfo"
	"github.com/starford/semestra/internal/models"
	"github.com/starford/semestra/internal/remote"
)

// Profile is the persisted per-device state.
type Profile struct {
	FocusArea     models.FocusArea `yaml:"focus_area,omitempty"`
	DisplayName   string           `yaml:"display_name,omitempty"`
	StudentNumber string           `yaml:"student_number,omitempty"`
	Timetable     []classinfo.Slot `yaml:"timetable,omitempty"`
}

// Validate checks the focus area and every timetable slot.
func (p Profile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FocusArea, validation.By(func(v any) error {
			if a, _ := v.(models.FocusArea); a != models.FocusNone && !a.Declared() {
				return validation.NewError("validation_focus_area", "must be COMMON, SOFTWARE, NETWORKING or MULTIMEDIA")
			}
			return nil
		})),
		validation.Field(&p.Timetable),
	)
}

// Store reads and writes one profile file. Writes are atomic.
type Store struct {
	path string
	mu   sync.Mutex
}

var _ remote.FocusAreaStore = (*Store)(nil)

// NewStore returns a store for path. The file is created on first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the stored profile; a missing file is an empty profile.
func (s *Store) Load() (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Update applies fn to the stored profile and writes the result.
func (s *Store) Update(fn func(*Profile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.loadLocked()
	if err != nil {
		return err
	}
	fn(&p)
	if err := p.Validate(); err != nil {
		return fmt.Errorf("prefs: %w", err)
	}
	return s.writeLocked(p)
}

// ReadDeclaredFocusArea implements remote.FocusAreaStore.
func (s *Store) ReadDeclaredFocusArea() (models.FocusArea, error) {
	p, err := s.Load()
	if err != nil {
		return models.FocusNone, err
	}
	return p.FocusArea, nil
}

// PersistDeclaredFocusArea implements remote.FocusAreaStore.
func (s *Store) PersistDeclaredFocusArea(area models.FocusArea) error {
	return s.Update(func(p *Profile) { p.FocusArea = area })
}

// ClearDeclaredFocusArea implements remote.FocusAreaStore.
func (s *Store) ClearDeclaredFocusArea() error {
	return s.Update(func(p *Profile) { p.FocusArea = models.FocusNone })
}

func (s *Store) loadLocked() (Profile, error) {
	var p Profile
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("prefs: read %s: %w", s.path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("prefs: decode %s: %w", s.path, err)
	}
	return p, nil
}

// writeLocked writes atomically: tmp file, fsync, rename.
func (s *Store) writeLocked(p Profile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("prefs: encode: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("prefs: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".semestra-tmp-*")
	if err != nil {
		return fmt.Errorf("prefs: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("prefs: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("prefs: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("prefs: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("prefs: rename: %w", err)
	}
	success = true
	return nil
}
