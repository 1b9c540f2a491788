package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonathan/renewable-watch/internal/types"
)

// listResponse mirrors the GET /projects payload.
type listResponse struct {
	Projects []types.ProjectRecord `json:"projects"`
	Count    int                   `json:"count"`
}

// listProjects runs GET /projects with the given raw query string.
func listProjects(t *testing.T, s *Server, query string) (*httptest.ResponseRecorder, listResponse) {
	t.Helper()

	target := "/projects"
	if query != "" {
		target += "?" + query
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()

	s.handleListProjects(w, req)

	var resp listResponse
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
	}
	return w, resp
}

func projectIDs(resp listResponse) []int {
	ids := make([]int, 0, len(resp.Projects))
	for _, p := range resp.Projects {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestListProjects_NoFilters(t *testing.T) {
	s := newTestServer(t)

	w, resp := listProjects(t, s, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if resp.Count != 3 || len(resp.Projects) != 3 {
		t.Errorf("expected 3 projects, got count=%d len=%d", resp.Count, len(resp.Projects))
	}
}

func TestListProjects_Filters(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		query   string
		wantIDs []int
	}{
		{"name substring", "q=solar", []int{101, 102}},
		{"name substring is case insensitive", "q=TEKNAF", []int{101}},
		{"technology", "technology=wind", []int{201}},
		{"status", "status=implemented", []int{101}},
		{"agency", "agency=sreda", []int{201}},
		{"min capacity", "min_mw=10", []int{101, 201}},
		{"max capacity", "max_mw=30", []int{101, 102}},
		{"capacity range", "min_mw=10&max_mw=30", []int{101}},
		{"combined", "q=solar&min_mw=5", []int{101}},
		{"no matches", "q=nuclear", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := listProjects(t, s, tt.query)
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			got := projectIDs(resp)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("expected ids %v, got %v", tt.wantIDs, got)
			}
			for i, id := range tt.wantIDs {
				if got[i] != id {
					t.Errorf("expected ids %v, got %v", tt.wantIDs, got)
					break
				}
			}
		})
	}
}

func TestListProjects_InvalidCapacityFilter(t *testing.T) {
	s := newTestServer(t)

	w, _ := listProjects(t, s, "min_mw=lots")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for bad min_mw, got %d", w.Code)
	}

	w, _ = listProjects(t, s, "max_mw=")
	if w.Code != http.StatusOK {
		t.Errorf("expected empty max_mw to be ignored, got %d", w.Code)
	}
}

func TestListProjects_InvalidOpposition(t *testing.T) {
	s := newTestServer(t)

	w, _ := listProjects(t, s, "opposition=maybe")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for bad opposition, got %d", w.Code)
	}
}

func TestListProjects_OppositionFilter(t *testing.T) {
	s := newTestServer(t)
	seedSummary(t, s, 101, true)
	seedSummary(t, s, 102, false)

	tests := []struct {
		value   string
		wantIDs []int
	}{
		{"true", []int{101}},
		{"false", []int{102}},
		{"unknown", []int{201}},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			w, resp := listProjects(t, s, "opposition="+tt.value)
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			got := projectIDs(resp)
			if len(got) != 1 || got[0] != tt.wantIDs[0] {
				t.Errorf("expected ids %v, got %v", tt.wantIDs, got)
			}
		})
	}
}

func TestGetProject_WithSummary(t *testing.T) {
	s := newTestServer(t)
	seedSummary(t, s, 101, true)

	req := httptest.NewRequest(http.MethodGet, "/projects/101", nil)
	req.SetPathValue("id", "101")
	w := httptest.NewRecorder()

	s.handleGetProject(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Project           types.ProjectRecord      `json:"project"`
		Summary           *types.OppositionSummary `json:"summary"`
		AnalysisAvailable bool                     `json:"analysis_available"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if resp.Project.ID != 101 || resp.Project.Name != "Teknaf Solar Park" {
		t.Errorf("unexpected project: %+v", resp.Project)
	}
	if !resp.AnalysisAvailable {
		t.Error("expected analysis_available true")
	}
	if resp.Summary == nil || !resp.Summary.OppositionPresent {
		t.Errorf("expected joined summary with opposition present, got %+v", resp.Summary)
	}
}

func TestGetProject_WithoutSummary(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/projects/201", nil)
	req.SetPathValue("id", "201")
	w := httptest.NewRecorder()

	s.handleGetProject(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if resp["summary"] != nil {
		t.Errorf("expected null summary, got %v", resp["summary"])
	}
	if available, ok := resp["analysis_available"].(bool); !ok || available {
		t.Errorf("expected analysis_available false, got %v", resp["analysis_available"])
	}
}

func TestGetProject_InvalidID(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/projects/abc", nil)
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()

	s.handleGetProject(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestGetProject_NotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/projects/999", nil)
	req.SetPathValue("id", "999")
	w := httptest.NewRecorder()

	s.handleGetProject(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestGetProjectSummary(t *testing.T) {
	s := newTestServer(t)
	seedSummary(t, s, 102, false)

	req := httptest.NewRequest(http.MethodGet, "/projects/102/summary", nil)
	req.SetPathValue("id", "102")
	w := httptest.NewRecorder()

	s.handleGetProjectSummary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var summary types.OppositionSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if summary.ProjectID != 102 || summary.OppositionPresent {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestGetProjectSummary_NoAnalysis(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/projects/101/summary", nil)
	req.SetPathValue("id", "101")
	w := httptest.NewRecorder()

	s.handleGetProjectSummary(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["error"] == "" {
		t.Error("expected a JSON error body")
	}
}

func TestGetProjectSummary_UnknownProject(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/projects/999/summary", nil)
	req.SetPathValue("id", "999")
	w := httptest.NewRecorder()

	s.handleGetProjectSummary(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestStats(t *testing.T) {
	s := newTestServer(t)
	seedSummary(t, s, 101, true)
	seedSummary(t, s, 102, false)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()

	s.handleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		TotalProjects   int            `json:"total_projects"`
		TotalCapacityMW float64        `json:"total_capacity_mw"`
		Technologies    map[string]int `json:"technologies"`
		Statuses        map[string]int `json:"statuses"`
		Opposition      map[string]int `json:"opposition"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if resp.TotalProjects != 3 {
		t.Errorf("expected 3 projects, got %d", resp.TotalProjects)
	}
	if resp.TotalCapacityMW != 86 {
		t.Errorf("expected 86 MW total, got %v", resp.TotalCapacityMW)
	}
	if resp.Technologies["Solar Park"] != 2 || resp.Technologies["Wind"] != 1 {
		t.Errorf("unexpected technology counts: %v", resp.Technologies)
	}
	if resp.Statuses["Implemented"] != 1 || resp.Statuses["Planned"] != 1 {
		t.Errorf("unexpected status counts: %v", resp.Statuses)
	}
	if resp.Opposition["found"] != 1 || resp.Opposition["none"] != 1 || resp.Opposition["unanalyzed"] != 1 {
		t.Errorf("unexpected opposition breakdown: %v", resp.Opposition)
	}
}
