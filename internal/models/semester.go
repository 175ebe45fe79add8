// Package models defines the domain types shared by the GPA engine.
package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// SemesterID identifies one of the eight half-year slots. The ordinal order
// is the chronological order.
type SemesterID int

// Semester slots.
const (
	Y1S1 SemesterID = iota + 1
	Y1S2
	Y2S1
	Y2S2
	Y3S1
	Y3S2
	Y4S1
	Y4S2
)

// AllSemesters returns every slot in chronological order.
func AllSemesters() []SemesterID {
	return []SemesterID{Y1S1, Y1S2, Y2S1, Y2S2, Y3S1, Y3S2, Y4S1, Y4S2}
}

// Valid reports whether id is one of the eight slots.
func (id SemesterID) Valid() bool {
	return id >= Y1S1 && id <= Y4S2
}

// Year returns the study year (1-4).
func (id SemesterID) Year() int {
	return (int(id)-1)/2 + 1
}

// Term returns the half of the year (1 or 2).
func (id SemesterID) Term() int {
	return (int(id)-1)%2 + 1
}

// String returns the short code, e.g. "Y3S1".
func (id SemesterID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("SemesterID(%d)", int(id))
	}
	return fmt.Sprintf("Y%dS%d", id.Year(), id.Term())
}

// Name returns the display name, e.g. "Year 3 Semester 1".
func (id SemesterID) Name() string {
	return fmt.Sprintf("Year %d Semester %d", id.Year(), id.Term())
}

// ParseSemesterID accepts the short code ("Y2S1", case-insensitive) or the
// ordinal ("3").
func ParseSemesterID(s string) (SemesterID, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, id := range AllSemesters() {
		if s == id.String() || s == fmt.Sprint(int(id)) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("models: unknown semester %q", s)
}

// MarshalText encodes the short code.
func (id SemesterID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("models: invalid semester %d", int(id))
	}
	return []byte(id.String()), nil
}

// UnmarshalText decodes the short code or the ordinal.
func (id *SemesterID) UnmarshalText(b []byte) error {
	parsed, err := ParseSemesterID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// UnmarshalJSON also accepts a bare JSON number.
func (id *SemesterID) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*id = SemesterID(n)
		if !id.Valid() {
			return fmt.Errorf("models: invalid semester %d", n)
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return id.UnmarshalText([]byte(s))
}

// UnmarshalYAML accepts the short code or the ordinal in catalog files.
func (id *SemesterID) UnmarshalYAML(node *yaml.Node) error {
	return id.UnmarshalText([]byte(node.Value))
}

// MarshalYAML encodes the short code.
func (id SemesterID) MarshalYAML() (any, error) {
	return id.String(), nil
}
