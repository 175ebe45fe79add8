package models

import (
	"fmt"
	"strings"
)

// FocusArea is a student's declared specialization track. The zero value
// means nothing has been declared.
type FocusArea string

// Focus areas.
const (
	FocusNone       FocusArea = ""
	FocusCommon     FocusArea = "COMMON"
	FocusSoftware   FocusArea = "SOFTWARE"
	FocusNetworking FocusArea = "NETWORKING"
	FocusMultimedia FocusArea = "MULTIMEDIA"
)

// Module tags.
const (
	TagCommon     = "common"
	TagSoftware   = "software-tag"
	TagNetworking = "networking-tag"
	TagMultimedia = "multimedia-tag"
)

// Tag returns the module tag that marks modules of this area, or "" for
// COMMON and the zero value.
func (f FocusArea) Tag() string {
	switch f {
	case FocusSoftware:
		return TagSoftware
	case FocusNetworking:
		return TagNetworking
	case FocusMultimedia:
		return TagMultimedia
	}
	return ""
}

// Declared reports whether f is a known, non-empty area.
func (f FocusArea) Declared() bool {
	switch f {
	case FocusCommon, FocusSoftware, FocusNetworking, FocusMultimedia:
		return true
	}
	return false
}

// ParseFocusArea is case-insensitive. The empty string parses to FocusNone.
func ParseFocusArea(s string) (FocusArea, error) {
	f := FocusArea(strings.ToUpper(strings.TrimSpace(s)))
	if f == FocusNone || f.Declared() {
		return f, nil
	}
	return FocusNone, fmt.Errorf("models: unknown focus area %q", s)
}
