// Package catalogfile loads the institution's module catalog from a YAML
// file and keeps it current while the file changes on disk.
package catalogfile

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/semestra/internal/models"
)

type document struct {
	Modules []models.Module `yaml:"modules"`
}

// Parse decodes a catalog document:
//
//	modules:
//	  - code: IT3010
//	    name: Software Architecture
//	    credit_weight: 4
//	    focus_area_tags: [software-tag]
//	    target_semester: Y3S1
//
// Tags are lower-cased and de-duplicated, codes are upper-cased. A module
// code may appear only once per semester.
func Parse(data []byte) ([]models.Module, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalogfile: decode: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Modules))
	out := make([]models.Module, 0, len(doc.Modules))
	for i, m := range doc.Modules {
		m.Code = strings.ToUpper(strings.TrimSpace(m.Code))
		m.Name = strings.TrimSpace(m.Name)
		m.FocusAreaTags = normalizeTags(m.FocusAreaTags)
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("catalogfile: module %d (%s): %w", i+1, m.Code, err)
		}
		key := m.TargetSemester.String() + "/" + m.Code
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("catalogfile: module %s listed twice for %s", m.Code, m.TargetSemester)
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
