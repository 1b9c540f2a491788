package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jonathan/renewable-watch/internal/types"
)

// projectFilter holds the parsed query filters for GET /projects.
type projectFilter struct {
	Name       string
	Technology string
	Status     string
	Agency     string
	MinMW      *float64
	MaxMW      *float64
	Opposition string // "true", "false", "unknown" or ""
}

// parseQueryFloat parses an optional float query parameter.
func parseQueryFloat(r *http.Request, key string) (*float64, error) {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return nil, nil
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return nil, err
	}
	return &val, nil
}

// handleListProjects lists dataset records matching the query filters
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	minMW, err := parseQueryFloat(r, "min_mw")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid min_mw: must be a number")
		return
	}
	maxMW, err := parseQueryFloat(r, "max_mw")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid max_mw: must be a number")
		return
	}

	opposition := r.URL.Query().Get("opposition")
	switch opposition {
	case "", "true", "false", "unknown":
	default:
		s.errorResponse(w, http.StatusBadRequest, "Invalid opposition: must be true, false or unknown")
		return
	}

	filter := projectFilter{
		Name:       r.URL.Query().Get("q"),
		Technology: r.URL.Query().Get("technology"),
		Status:     r.URL.Query().Get("status"),
		Agency:     r.URL.Query().Get("agency"),
		MinMW:      minMW,
		MaxMW:      maxMW,
		Opposition: opposition,
	}

	// Summaries are read fresh per request so a concurrently running
	// analysis becomes visible without a restart.
	var summaries map[int]*types.OppositionSummary
	if filter.Opposition != "" {
		summaries, err = s.store.LoadAllSummaries()
		if err != nil {
			s.errorResponse(w, http.StatusInternalServerError, "Reading summaries failed: "+err.Error())
			return
		}
	}

	matched := make([]types.ProjectRecord, 0, len(s.projects))
	for i := range s.projects {
		if filter.matches(&s.projects[i], summaries) {
			matched = append(matched, s.projects[i])
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"projects": matched,
		"count":    len(matched),
	})
}

// matches reports whether a record passes every configured filter.
func (f *projectFilter) matches(p *types.ProjectRecord, summaries map[int]*types.OppositionSummary) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.Technology != "" && !strings.EqualFold(p.Technology, f.Technology) {
		return false
	}
	if f.Status != "" && !strings.EqualFold(p.Status, f.Status) {
		return false
	}
	if f.Agency != "" && !strings.EqualFold(p.Agency, f.Agency) {
		return false
	}
	if f.MinMW != nil && p.CapacityMW < *f.MinMW {
		return false
	}
	if f.MaxMW != nil && p.CapacityMW > *f.MaxMW {
		return false
	}

	switch f.Opposition {
	case "true":
		summary := summaries[p.ID]
		if summary == nil || !summary.OppositionPresent {
			return false
		}
	case "false":
		summary := summaries[p.ID]
		if summary == nil || summary.OppositionPresent {
			return false
		}
	case "unknown":
		if summaries[p.ID] != nil {
			return false
		}
	}

	return true
}

// handleGetProject retrieves one record joined with its opposition summary.
// Records without a summary report analysis_available=false with a null
// summary so the dashboard can render "no analysis available".
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	project, ok := s.byID[id]
	if !ok {
		s.errorResponse(w, http.StatusNotFound, "Project not found")
		return
	}

	summary, err := s.store.LoadSummary(id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Reading summary failed: "+err.Error())
		return
	}

	response := map[string]any{
		"project":            project,
		"summary":            nil,
		"analysis_available": false,
	}
	if summary != nil {
		response["summary"] = summary
		response["analysis_available"] = true
	}

	s.jsonResponse(w, http.StatusOK, response)
}

// handleGetProjectSummary retrieves the opposition summary for one record
func (s *Server) handleGetProjectSummary(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	if _, ok := s.byID[id]; !ok {
		s.errorResponse(w, http.StatusNotFound, "Project not found")
		return
	}

	summary, err := s.store.LoadSummary(id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Reading summary failed: "+err.Error())
		return
	}
	if summary == nil {
		s.errorResponse(w, http.StatusNotFound, "No analysis available for this project")
		return
	}

	s.jsonResponse(w, http.StatusOK, summary)
}

// handleStats returns dataset-wide aggregates
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	summaries, err := s.store.LoadAllSummaries()
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Reading summaries failed: "+err.Error())
		return
	}

	var totalMW float64
	technologies := make(map[string]int)
	statuses := make(map[string]int)
	found, none := 0, 0

	for i := range s.projects {
		p := &s.projects[i]
		totalMW += p.CapacityMW
		if p.Technology != "" {
			technologies[p.Technology]++
		}
		if p.Status != "" {
			statuses[p.Status]++
		}
		if summary := summaries[p.ID]; summary != nil {
			if summary.OppositionPresent {
				found++
			} else {
				none++
			}
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"total_projects":    len(s.projects),
		"total_capacity_mw": totalMW,
		"technologies":      technologies,
		"statuses":          statuses,
		"opposition": map[string]int{
			"found":      found,
			"none":       none,
			"unanalyzed": len(s.projects) - found - none,
		},
	})
}
