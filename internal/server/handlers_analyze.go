package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/renewable-watch/internal/pipeline"
	"github.com/jonathan/renewable-watch/internal/types"
)

// Job status values reported by the analyze endpoints.
const (
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// AnalyzeRequest represents the request body for /analyze.
// An empty project_ids list selects every loaded project.
type AnalyzeRequest struct {
	ProjectIDs []int `json:"project_ids" validate:"omitempty,dive,gte=0"`
	Force      bool  `json:"force"`
}

// analyzeJob tracks one asynchronous pipeline run for the process lifetime.
type analyzeJob struct {
	mu         sync.Mutex
	ID         string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
	Projects   int
	Stages     map[int]types.Stage // project id -> latest reported stage
	Result     *pipeline.RunResult
	Err        string
}

// recordProgress is wired as the pipeline progress callback.
func (j *analyzeJob) recordProgress(event pipeline.ProgressEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Stages[event.ProjectID] = event.Stage
}

// finish marks the job terminal with the pipeline outcome.
func (j *analyzeJob) finish(result *pipeline.RunResult, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.FinishedAt = time.Now().UTC()
	j.Result = result
	if err != nil {
		j.Status = JobFailed
		j.Err = err.Error()
		return
	}
	j.Status = JobCompleted
}

// view builds the JSON representation of the job under its lock.
func (j *analyzeJob) view() map[string]any {
	j.mu.Lock()
	defer j.mu.Unlock()

	stages := make(map[int]types.Stage, len(j.Stages))
	for id, stage := range j.Stages {
		stages[id] = stage
	}

	view := map[string]any{
		"job_id":     j.ID,
		"status":     j.Status,
		"projects":   j.Projects,
		"started_at": j.StartedAt.Format(time.RFC3339),
		"stages":     stages,
	}
	if !j.FinishedAt.IsZero() {
		view["finished_at"] = j.FinishedAt.Format(time.RFC3339)
	}
	if j.Result != nil {
		view["run_id"] = j.Result.RunID
		view["succeeded"] = j.Result.Succeeded
		view["failed"] = j.Result.Failed
		view["skipped"] = j.Result.Skipped
	}
	if j.Err != "" {
		view["error"] = j.Err
	}
	return view
}

// jobRegistry tracks analyze jobs by id. Jobs are kept until the process
// exits; a dashboard session polls them for minutes, not days.
type jobRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*analyzeJob
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{jobs: make(map[string]*analyzeJob)}
}

func (r *jobRegistry) create(projects int) *analyzeJob {
	job := &analyzeJob{
		ID:        uuid.New().String(),
		Status:    JobRunning,
		StartedAt: time.Now().UTC(),
		Projects:  projects,
		Stages:    make(map[int]types.Stage),
	}
	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()
	return job
}

func (r *jobRegistry) get(id string) *analyzeJob {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jobs[id]
}

// decodeAnalyzeRequest reads and validates the request body, resolving the
// requested ids against the loaded dataset.
func (s *Server) decodeAnalyzeRequest(w http.ResponseWriter, r *http.Request) ([]types.ProjectRecord, AnalyzeRequest, bool) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return nil, req, false
	}
	if err := validate.Struct(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return nil, req, false
	}

	if len(req.ProjectIDs) == 0 {
		if len(s.projects) == 0 {
			s.errorResponse(w, http.StatusBadRequest, "No projects loaded")
			return nil, req, false
		}
		return s.projects, req, true
	}

	selected := make([]types.ProjectRecord, 0, len(req.ProjectIDs))
	var unknown []int
	for _, id := range req.ProjectIDs {
		project, ok := s.byID[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		selected = append(selected, *project)
	}
	if len(unknown) > 0 {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("Unknown project ids: %v", unknown))
		return nil, req, false
	}
	return selected, req, true
}

// pipelineOptions assembles run options from the server's analyze config.
func (s *Server) pipelineOptions(projects []types.ProjectRecord, force bool) pipeline.RunOptions {
	return pipeline.RunOptions{
		Projects:        projects,
		Store:           s.store,
		Client:          s.analyze.Client,
		Searcher:        s.analyze.Searcher,
		Extraction:      s.analyze.Extraction,
		ResultsPerQuery: s.analyze.ResultsPerQuery,
		Workers:         s.analyze.Workers,
		Force:           force,
		DatabaseURL:     s.analyze.DatabaseURL,
	}
}

// handleAnalyze starts an asynchronous analysis run over the selected projects
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	projects, req, ok := s.decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	job := s.jobs.create(len(projects))
	log.Printf("Starting analyze job %s (%d projects, force=%t)", job.ID, len(projects), req.Force)

	opts := s.pipelineOptions(projects, req.Force)
	opts.OnProgress = job.recordProgress

	// Run pipeline in background
	go func() {
		result, err := pipeline.Run(context.Background(), opts)
		job.finish(result, err)
		if err != nil {
			log.Printf("Analyze job %s failed: %v", job.ID, err)
		}
	}()

	s.jsonResponse(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   JobRunning,
		"projects": len(projects),
	})
}

// handleAnalyzeJob reports the progress of an analyze job
func (s *Server) handleAnalyzeJob(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("job_id")
	if _, err := uuid.Parse(idStr); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job ID format")
		return
	}

	job := s.jobs.get(idStr)
	if job == nil {
		s.errorResponse(w, http.StatusNotFound, "Job not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, job.view())
}

// handleAnalyzeStream runs an analysis and streams progress via SSE
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	projects, req, ok := s.decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("Starting streaming analyze run (%d projects)", len(projects))

	opts := s.pipelineOptions(projects, req.Force)
	opts.OnProgress = func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("progress", event); err != nil {
			log.Printf("Error writing SSE event: %v", err)
		}
	}

	// Run synchronously; a dropped connection cancels via the request context.
	result, err := pipeline.Run(r.Context(), opts)
	if err != nil {
		log.Printf("Streaming analyze run failed: %v", err)
		sse.WriteError(err.Error())
		return
	}

	sse.WriteComplete(result)
	log.Printf("Streaming analyze run completed (run %s)", result.RunID)
}
