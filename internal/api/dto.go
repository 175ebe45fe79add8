package api

import (
	"github.com/starford/semestra/internal/gpa"
	"github.com/starford/semestra/internal/remote"
)

// UpsertSemesterRequest is the request body for PUT /semesters/{id}.
type UpsertSemesterRequest = remote.UpsertRequest

// ModuleListResponse wraps the module catalog.
type ModuleListResponse = remote.ModuleListResponse

// SemesterListResponse wraps every stored semester.
type SemesterListResponse = remote.RecordListResponse

// SummaryResponse is the CGPA over every stored semester.
type SummaryResponse = gpa.Cumulative
