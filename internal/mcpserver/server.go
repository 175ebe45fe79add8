// Package mcpserver exposes the semester engine as MCP (Model Context
// Protocol) tools over stdio, so an assistant can drive the editor.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/semestra/internal/apperr"
	"github.com/starford/semestra/internal/classinfo"
	"github.com/starford/semestra/internal/engine"
	"github.com/starford/semestra/internal/gpa"
	"github.com/starford/semestra/internal/ledger"
	"github.com/starford/semestra/internal/models"
	"github.com/starford/semestra/internal/prefs"
)

// ProfileSource provides the stored timetable.
type ProfileSource interface {
	Load() (prefs.Profile, error)
}

// Server wraps the MCP server with the semester tools.
type Server struct {
	mcp     *server.MCPServer
	engine  *engine.Engine
	profile ProfileSource
	now     func() time.Time
}

// New creates a new MCP server with all tools registered. profile may be
// nil, in which case class_status reports no classes.
func New(eng *engine.Engine, profile ProfileSource) *Server {
	s := &Server{engine: eng, profile: profile, now: time.Now}

	s.mcp = server.NewMCPServer(
		"Semestra",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	semesterArg := mcp.WithString("semester", mcp.Required(),
		mcp.Description("Semester code Y1S1..Y4S2 or its ordinal 1..8"))
	indexArg := mcp.WithNumber("index", mcp.Required(),
		mcp.Description("Zero-based position in the subjects list returned by show_session"))

	s.mcp.AddTool(mcp.NewTool("list_semesters",
		mcp.WithDescription("List saved semesters with their GPA, the CGPA and the GPA trend."),
	), s.listSemesters)

	s.mcp.AddTool(mcp.NewTool("open_semester",
		mcp.WithDescription("Start editing a semester. Saved semesters load their subjects; new ones are "+
			"pre-filled from the module catalog. Switching semesters drops unsaved edits."),
		semesterArg,
		mcp.WithString("focus_area", mcp.Description("Optional focus area to declare first"),
			mcp.Enum(string(models.FocusCommon), string(models.FocusSoftware), string(models.FocusNetworking), string(models.FocusMultimedia))),
	), s.openSemester)

	s.mcp.AddTool(mcp.NewTool("declare_focus_area",
		mcp.WithDescription("Declare the student's focus area. Required before editing Y3S1..Y4S2."),
		mcp.WithString("focus_area", mcp.Required(),
			mcp.Enum(string(models.FocusCommon), string(models.FocusSoftware), string(models.FocusNetworking), string(models.FocusMultimedia))),
	), s.declareFocusArea)

	s.mcp.AddTool(mcp.NewTool("add_subject",
		mcp.WithDescription("Append a subject to the open semester."),
		mcp.WithString("name", mcp.Required()),
		mcp.WithNumber("credits", mcp.Required(), mcp.Min(models.MinCredits), mcp.Max(models.MaxCredits)),
		mcp.WithString("grade", mcp.Description("Letter grade; empty when not yet known")),
		mcp.WithString("code", mcp.Description("Optional module code")),
	), s.addSubject)

	s.mcp.AddTool(mcp.NewTool("set_grade",
		mcp.WithDescription("Set or clear the grade of one subject. See the "+GradingScaleURI+" resource for valid grades."),
		indexArg,
		mcp.WithString("grade", mcp.Required(), mcp.Description("Letter grade, or empty to clear")),
	), s.setGrade)

	s.mcp.AddTool(mcp.NewTool("set_credits",
		mcp.WithDescription("Change the credit weight of one subject."),
		indexArg,
		mcp.WithNumber("credits", mcp.Required(), mcp.Min(models.MinCredits), mcp.Max(models.MaxCredits)),
	), s.setCredits)

	s.mcp.AddTool(mcp.NewTool("remove_subject",
		mcp.WithDescription("Remove one subject from the open semester."),
		indexArg,
	), s.removeSubject)

	s.mcp.AddTool(mcp.NewTool("show_session",
		mcp.WithDescription("Show the editing session: state, subjects and the live GPA preview."),
	), s.showSession)

	s.mcp.AddTool(mcp.NewTool("save_semester",
		mcp.WithDescription("Save the open semester. On success the session closes and the CGPA updates."),
	), s.saveSemester)

	s.mcp.AddTool(mcp.NewTool("discard_session",
		mcp.WithDescription("Close the editing session without saving. Confirm with the student first."),
	), s.discardSession)

	s.mcp.AddTool(mcp.NewTool("delete_semester",
		mcp.WithDescription("Delete a saved semester. Confirm with the student first."),
		semesterArg,
	), s.deleteSemester)

	s.mcp.AddTool(mcp.NewTool("class_status",
		mcp.WithDescription("Report whether the student is in class, what is next today, or that classes are over."),
	), s.classStatus)

	s.mcp.AddResource(
		mcp.NewResource(GradingScaleURI, "Grading Scale",
			mcp.WithResourceDescription("Letter grades, grade points and GPA rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGradingScale,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type semesterList struct {
	Semesters []models.SemesterRecord `json:"semesters"`
	Summary   gpa.Cumulative          `json:"summary"`
	Trend     []ledger.TrendPoint     `json:"trend"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError turns engine errors into a tool result the assistant can read.
func toolError(err error) (*mcp.CallToolResult, error) {
	msg := apperr.Message(err)
	switch {
	case errors.Is(err, apperr.ErrNetwork):
		msg = "network: " + msg
	case errors.Is(err, apperr.ErrValidation):
		msg = "invalid: " + msg
	case errors.Is(err, apperr.ErrInvalidState):
		msg = "not now: " + msg
	}
	return mcp.NewToolResultError(msg), nil
}

func requireSemester(req mcp.CallToolRequest) (models.SemesterID, error) {
	raw, err := req.RequireString("semester")
	if err != nil {
		return 0, apperr.Validation(err.Error())
	}
	id, err := models.ParseSemesterID(raw)
	if err != nil {
		return 0, apperr.Validation(fmt.Sprintf("unknown semester %q", raw))
	}
	return id, nil
}

func requireIndex(req mcp.CallToolRequest) (int, error) {
	f, err := req.RequireFloat("index")
	if err != nil {
		return 0, apperr.Validation(err.Error())
	}
	if f != float64(int(f)) {
		return 0, apperr.Validation("index must be a whole number")
	}
	return int(f), nil
}

func (s *Server) sessionResult() (*mcp.CallToolResult, error) {
	return jsonResult(s.engine.Editor().Snapshot())
}

func (s *Server) listSemesters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.engine.Ledger().Snapshot()
	return jsonResult(semesterList{
		Semesters: snap.Records,
		Summary:   snap.Summary,
		Trend:     s.engine.Ledger().Trend(),
	})
}

func (s *Server) openSemester(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireSemester(req)
	if err != nil {
		return toolError(err)
	}
	area, err := models.ParseFocusArea(req.GetString("focus_area", ""))
	if err != nil {
		return toolError(apperr.Validation(err.Error()))
	}
	if err := s.engine.Editor().Open(ctx, id, area); err != nil {
		return toolError(err)
	}
	return s.sessionResult()
}

func (s *Server) declareFocusArea(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("focus_area")
	if err != nil {
		return toolError(apperr.Validation(err.Error()))
	}
	area, err := models.ParseFocusArea(raw)
	if err != nil {
		return toolError(apperr.Validation(err.Error()))
	}
	if err := s.engine.Editor().DeclareFocusArea(ctx, area); err != nil {
		return toolError(err)
	}
	return s.sessionResult()
}

func (s *Server) addSubject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return toolError(apperr.Validation(err.Error()))
	}
	credits, err := req.RequireFloat("credits")
	if err != nil {
		return toolError(apperr.Validation(err.Error()))
	}
	subject := models.Subject{
		Code:    req.GetString("code", ""),
		Name:    name,
		Credits: credits,
		Grade:   req.GetString("grade", ""),
	}
	if err := s.engine.Editor().AddSubject(subject); err != nil {
		return toolError(err)
	}
	return s.sessionResult()
}

func (s *Server) setGrade(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	i, err := requireIndex(req)
	if err != nil {
		return toolError(err)
	}
	if err := s.engine.Editor().UpdateGrade(i, req.GetString("grade", "")); err != nil {
		return toolError(err)
	}
	return s.sessionResult()
}

func (s *Server) setCredits(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	i, err := requireIndex(req)
	if err != nil {
		return toolError(err)
	}
	credits, err := req.RequireFloat("credits")
	if err != nil {
		return toolError(apperr.Validation(err.Error()))
	}
	if err := s.engine.Editor().UpdateCredits(i, credits); err != nil {
		return toolError(err)
	}
	return s.sessionResult()
}

func (s *Server) removeSubject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	i, err := requireIndex(req)
	if err != nil {
		return toolError(err)
	}
	if err := s.engine.Editor().RemoveSubject(i); err != nil {
		return toolError(err)
	}
	return s.sessionResult()
}

func (s *Server) showSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.sessionResult()
}

func (s *Server) saveSemester(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, err := s.engine.Editor().Save(ctx)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(struct {
		Saved   models.SemesterRecord `json:"saved"`
		Summary gpa.Cumulative        `json:"summary"`
	}{rec, s.engine.Ledger().Summary()})
}

func (s *Server) discardSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.engine.Editor().Discard()
	return mcp.NewToolResultText("session discarded"), nil
}

func (s *Server) deleteSemester(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireSemester(req)
	if err != nil {
		return toolError(err)
	}
	if err := s.engine.DeleteSemester(ctx, id); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) classStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var slots []classinfo.Slot
	if s.profile != nil {
		p, err := s.profile.Load()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		slots = p.Timetable
	}
	return mcp.NewToolResultText(classinfo.Describe(classinfo.Resolve(s.now(), slots))), nil
}

func (s *Server) readGradingScale(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GradingScaleURI,
			MIMEType: "text/markdown",
			Text:     GradingScale(),
		},
	}, nil
}
