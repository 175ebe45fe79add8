package models

import (
	"encoding/json"
	"math"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSemesterID_StringAndParse(t *testing.T) {
	for _, id := range AllSemesters() {
		got, err := ParseSemesterID(id.String())
		if err != nil {
			t.Fatalf("ParseSemesterID(%q): %v", id.String(), err)
		}
		if got != id {
			t.Errorf("round trip %s = %s", id, got)
		}
	}
	if id, err := ParseSemesterID("5"); err != nil || id != Y3S1 {
		t.Errorf("ParseSemesterID(5) = %v, %v", id, err)
	}
	if _, err := ParseSemesterID("Y5S1"); err == nil {
		t.Error("expected error for unknown semester")
	}
}

func TestSemesterID_Name(t *testing.T) {
	if got := Y4S2.Name(); got != "Year 4 Semester 2" {
		t.Errorf("Name = %q", got)
	}
}

func TestSemesterID_JSONAcceptsNumberAndCode(t *testing.T) {
	var v struct {
		A SemesterID `json:"a"`
		B SemesterID `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":3,"b":"y4s1"}`), &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v.A != Y2S1 || v.B != Y4S1 {
		t.Errorf("got %s %s", v.A, v.B)
	}
	out, _ := json.Marshal(v)
	if string(out) != `{"a":"Y2S1","b":"Y4S1"}` {
		t.Errorf("Marshal = %s", out)
	}
	if err := json.Unmarshal([]byte(`{"a":9}`), &v); err == nil {
		t.Error("expected error for out of range ordinal")
	}
}

func TestSemesterID_YAML(t *testing.T) {
	var m Module
	src := "code: CS3001\nname: Networks\ncredit_weight: 3\ntarget_semester: Y3S1\n"
	if err := yaml.Unmarshal([]byte(src), &m); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if m.TargetSemester != Y3S1 {
		t.Errorf("target = %s", m.TargetSemester)
	}
}

func TestFocusArea_Tag(t *testing.T) {
	cases := map[FocusArea]string{
		FocusSoftware:   TagSoftware,
		FocusNetworking: TagNetworking,
		FocusMultimedia: TagMultimedia,
		FocusCommon:     "",
		FocusNone:       "",
	}
	for f, want := range cases {
		if got := f.Tag(); got != want {
			t.Errorf("%q.Tag() = %q, want %q", f, got, want)
		}
	}
}

func TestParseFocusArea(t *testing.T) {
	if f, err := ParseFocusArea("software"); err != nil || f != FocusSoftware {
		t.Errorf("ParseFocusArea(software) = %q, %v", f, err)
	}
	if f, err := ParseFocusArea(""); err != nil || f != FocusNone {
		t.Errorf("ParseFocusArea(\"\") = %q, %v", f, err)
	}
	if _, err := ParseFocusArea("biology"); err == nil {
		t.Error("expected error")
	}
}

func TestSubject_Validate(t *testing.T) {
	ok := []Subject{
		{Name: "Maths", Credits: 3, Grade: "A"},
		{Name: "Maths", Credits: 1, Grade: ""},
		{Name: "Maths", Credits: 10, Grade: "E"},
	}
	for _, s := range ok {
		if err := s.Validate(); err != nil {
			t.Errorf("%+v: %v", s, err)
		}
	}
	bad := []Subject{
		{Name: " ", Credits: 3, Grade: "A"},
		{Name: "Maths", Credits: 0, Grade: "A"},
		{Name: "Maths", Credits: 11, Grade: "A"},
		{Name: "Maths", Credits: 3, Grade: "F"},
		{Name: "Maths", Credits: math.NaN(), Grade: "A"},
		{Name: "Maths", Credits: math.Inf(1), Grade: "A"},
	}
	for _, s := range bad {
		if err := s.Validate(); err == nil {
			t.Errorf("%+v: expected validation error", s)
		}
	}
}

func TestSemesterRecord_CloneDoesNotAlias(t *testing.T) {
	r := SemesterRecord{Subjects: []Subject{{Name: "A", Credits: 1}}}
	c := r.Clone()
	c.Subjects[0].Name = "B"
	if r.Subjects[0].Name != "A" {
		t.Error("clone aliases subjects")
	}
}
