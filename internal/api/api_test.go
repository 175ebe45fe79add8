package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/semestra/internal/models"
	"github.com/starford/semestra/internal/recordservice"
	"github.com/starford/semestra/internal/remote"
	"github.com/starford/semestra/internal/testutil"
)

// testEnv sets up a temp SQLite DB, service and router. An empty authToken
// means auth is disabled.
func testEnv(t *testing.T, authToken string) (*recordservice.Service, http.Handler) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) (*recordservice.Service, http.Handler) {
	t.Helper()
	mods := &testutil.FakeModules{Modules: testutil.SampleCatalog()}
	svc := recordservice.NewService(testutil.TestDB(t), mods, nil, testutil.Logger())
	return svc, NewRouter(svc, authEnabled, token, sseHandler)
}

func putSemester(t *testing.T, router http.Handler, id string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPut, "/semesters/"+id, bytes.NewReader(data))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validBody() remote.UpsertRequest {
	return remote.UpsertRequest{
		SemesterName: "Year 1 Semester 1",
		Subjects: []models.Subject{
			{Code: "IT1010", Name: "Mathematics", Credits: 3, Grade: "A"},
			{Name: "Elective", Credits: 1, Grade: "B"},
		},
	}
}

func TestPutAndGetSemester(t *testing.T) {
	_, router := testEnv(t, "")

	w := putSemester(t, router, "Y1S1", validBody(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", w.Code, w.Body.String())
	}
	var saved models.SemesterRecord
	if err := json.Unmarshal(w.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// (4*3 + 3*1) / 4 = 3.75
	if saved.GPA != 3.75 || saved.TotalCredits != 4 {
		t.Errorf("gpa = %v credits = %v", saved.GPA, saved.TotalCredits)
	}
	if etag := w.Header().Get("ETag"); etag != `"`+saved.Checksum+`"` {
		t.Errorf("ETag = %q, checksum = %q", etag, saved.Checksum)
	}

	req := httptest.NewRequest(http.MethodGet, "/semesters/1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got models.SemesterRecord
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.ID != saved.ID || got.SemesterID != models.Y1S1 || len(got.Subjects) != 2 {
		t.Errorf("get = %+v", got)
	}
	if !strings.Contains(w.Body.String(), `"semester_id":"Y1S1"`) {
		t.Errorf("semester id not encoded as code: %s", w.Body.String())
	}
}

func TestPutSemester_Validation(t *testing.T) {
	_, router := testEnv(t, "")

	body := validBody()
	body.Subjects[0].Grade = "Z"
	w := putSemester(t, router, "Y1S1", body, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad grade = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "subject 1") {
		t.Errorf("error body = %s", w.Body.String())
	}

	w = putSemester(t, router, "Y1S1", remote.UpsertRequest{}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty list = %d, want 400", w.Code)
	}

	w = putSemester(t, router, "Y9S9", validBody(), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown semester = %d, want 400", w.Code)
	}

	req := httptest.NewRequest(http.MethodPut, "/semesters/Y1S1", strings.NewReader("{"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("broken json = %d, want 400", w.Code)
	}
}

func TestPutSemester_IfMatch(t *testing.T) {
	_, router := testEnv(t, "")

	w := putSemester(t, router, "Y2S1", validBody(), nil)
	etag := w.Header().Get("ETag")

	w = putSemester(t, router, "Y2S1", validBody(), map[string]string{"If-Match": `"deadbeef"`})
	if w.Code != http.StatusConflict {
		t.Errorf("stale If-Match = %d, want 409", w.Code)
	}

	w = putSemester(t, router, "Y2S1", validBody(), map[string]string{"If-Match": etag})
	if w.Code != http.StatusOK {
		t.Errorf("matching If-Match = %d, want 200", w.Code)
	}
}

func TestDeleteSemester(t *testing.T) {
	_, router := testEnv(t, "")
	putSemester(t, router, "Y1S2", validBody(), nil)

	req := httptest.NewRequest(http.MethodDelete, "/semesters/Y1S2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d, want 204", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/semesters/Y1S2", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestGetSemester_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/semesters/Y4S2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing semester = %d, want 404", w.Code)
	}
}

func TestListSemestersAndSummary(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/summary", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `"cgpa":null`) {
		t.Errorf("empty summary = %s", w.Body.String())
	}

	putSemester(t, router, "Y2S1", validBody(), nil)
	putSemester(t, router, "Y1S1", validBody(), nil)

	req = httptest.NewRequest(http.MethodGet, "/semesters", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var list remote.RecordListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Semesters) != 2 || list.Semesters[0].SemesterID != models.Y1S1 {
		t.Errorf("list = %+v", list.Semesters)
	}

	req = httptest.NewRequest(http.MethodGet, "/summary", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var sum SummaryResponse
	_ = json.Unmarshal(w.Body.Bytes(), &sum)
	if sum.CGPA == nil || *sum.CGPA != 3.75 || sum.Semesters != 2 {
		t.Errorf("summary = %s", w.Body.String())
	}
}

func TestListModules(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/modules", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var out remote.ModuleListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Modules) != len(testutil.SampleCatalog()) {
		t.Errorf("modules = %d", len(out.Modules))
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/semesters", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/semesters", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/modules", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/semesters", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// Minimal SSE handler stub: writes headers and blocks until context done.
var sseStub = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "secret", sseStub)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "tok", sseStub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}
