// Package focus decides which catalog modules a student sees for a declared
// focus area, and which semesters need a declaration before editing.
package focus

import "github.com/starford/semestra/internal/models"

// IsVisible reports whether a module carrying tags is shown to a student who
// declared area. Common modules are always visible; area-specific modules
// are visible only to students of that exact area.
func IsVisible(tags []string, area models.FocusArea) bool {
	if contains(tags, models.TagCommon) {
		return true
	}
	want := area.Tag()
	if want == "" {
		return false
	}
	return contains(tags, want)
}

// RequiresDeclaration reports whether a focus area must be known before the
// semester can be edited. Only the upper four slots are gated.
func RequiresDeclaration(id models.SemesterID) bool {
	return id >= models.Y3S1 && id <= models.Y4S2
}

// Filter returns the modules of semester id visible to area, in input order.
func Filter(mods []models.Module, id models.SemesterID, area models.FocusArea) []models.Module {
	var out []models.Module
	for _, m := range mods {
		if m.TargetSemester == id && IsVisible(m.FocusAreaTags, area) {
			out = append(out, m)
		}
	}
	return out
}

func contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
