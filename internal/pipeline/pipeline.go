// Package pipeline provides the high-level orchestration for the opposition analysis process.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/renewable-watch/internal/artifacts"
	"github.com/jonathan/renewable-watch/internal/classify"
	"github.com/jonathan/renewable-watch/internal/db"
	"github.com/jonathan/renewable-watch/internal/extraction"
	"github.com/jonathan/renewable-watch/internal/llm"
	"github.com/jonathan/renewable-watch/internal/observability"
	"github.com/jonathan/renewable-watch/internal/queries"
	"github.com/jonathan/renewable-watch/internal/search"
	"github.com/jonathan/renewable-watch/internal/types"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	ProjectID int         `json:"project_id"`
	Stage     types.Stage `json:"stage"`
	Message   string      `json:"message"`
	RunID     string      `json:"run_id,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	Projects        []types.ProjectRecord
	Store           *artifacts.Store
	Client          llm.Client
	Searcher        search.Searcher
	Extraction      *extraction.Options
	ResultsPerQuery int
	Workers         int
	Force           bool
	Verbose         bool
	DatabaseURL     string
	OnProgress      ProgressCallback
}

// RunResult summarizes how a pipeline run ended.
type RunResult struct {
	RunID     string
	Projects  int
	Succeeded int
	Failed    int
	Skipped   int
}

// outcome is how a single project ended within a run.
type outcome int

const (
	outcomeDone outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (o outcome) label() string {
	switch o {
	case outcomeSkipped:
		return "skipped"
	case outcomeFailed:
		return "failed"
	default:
		return "done"
	}
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, projectID int, stage types.Stage, message string) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			ProjectID: projectID,
			Stage:     stage,
			Message:   message,
		})
	}
}

// Run analyzes every project in opts.Projects through the four stages:
// query synthesis, web search, content extraction and opposition
// classification. Each stage persists its artifact before the next starts, so
// an interrupted run resumes from the last completed stage. Projects already
// holding a summary are skipped unless Force is set.
//
// A stage failure marks that project failed and moves on; only context
// cancellation aborts the whole run.
func Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("artifact store is required")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("language client is required")
	}
	if opts.Searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	if err := opts.Store.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("preparing artifact store failed: %w", err)
	}

	// Initialize observability printer for verbose output
	printer := observability.NewPrinter(os.Stdout)

	// Initialize database mirror if configured
	var database *db.DB
	if opts.DatabaseURL != "" {
		conn, err := db.Connect(ctx, opts.DatabaseURL)
		if err != nil {
			fmt.Printf("Warning: Failed to connect to database: %v\n", err)
			fmt.Printf("Continuing without database persistence...\n")
		} else if err := conn.EnsureSchema(ctx); err != nil {
			conn.Close()
			fmt.Printf("Warning: Failed to ensure database schema: %v\n", err)
			fmt.Printf("Continuing without database persistence...\n")
		} else {
			database = conn
			defer database.Close()
			if opts.Verbose {
				fmt.Printf("[VERBOSE] Connected to database\n")
			}
		}
	}

	runID := artifacts.NewRunID()
	startedAt := time.Now().UTC()
	result := &RunResult{RunID: runID, Projects: len(opts.Projects)}

	fmt.Printf("Analyzing %d projects with %d workers (run %s)...\n", len(opts.Projects), workers, runID)

	var mu sync.Mutex
	var outcomes []artifacts.ProjectOutcome
	record := func(projectID int, o outcome) {
		mu.Lock()
		defer mu.Unlock()
		switch o {
		case outcomeDone:
			result.Succeeded++
		case outcomeSkipped:
			result.Skipped++
		case outcomeFailed:
			result.Failed++
		}
		outcomes = append(outcomes, artifacts.ProjectOutcome{ProjectID: projectID, Outcome: o.label()})
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range opts.Projects {
		project := &opts.Projects[i]
		g.Go(func() error {
			o, err := processProject(gCtx, &opts, project, runID, printer, database)
			if err != nil {
				return err
			}
			record(project.ID, o)
			return nil
		})
	}

	waitErr := g.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].ProjectID < outcomes[j].ProjectID })
	manifest := &artifacts.RunManifest{
		RunID:      runID,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
		Workers:    workers,
		Projects:   len(opts.Projects),
		Succeeded:  result.Succeeded,
		Failed:     result.Failed,
		Skipped:    result.Skipped,
		Outcomes:   outcomes,
	}
	if err := opts.Store.SaveRunManifest(manifest); err != nil {
		fmt.Printf("Warning: Failed to save run manifest: %v\n", err)
	}

	if waitErr != nil {
		return result, fmt.Errorf("analysis run aborted: %w", waitErr)
	}

	fmt.Printf("Done! %d succeeded, %d failed, %d skipped.\n", result.Succeeded, result.Failed, result.Skipped)
	return result, nil
}

// processProject walks one project through the stage machine. Stage artifacts
// already on disk are loaded, not recomputed, so completed stages stay
// byte-identical across reruns. The returned error is non-nil only for
// context cancellation; every other failure writes a marker and reports
// outcomeFailed.
func processProject(ctx context.Context, opts *RunOptions, project *types.ProjectRecord, runID string, printer *observability.Printer, database *db.DB) (outcome, error) {
	store := opts.Store

	if !opts.Force && store.HasSummary(project.ID) {
		fmt.Printf("[%d] Summary exists, skipping %s\n", project.ID, project.Name)
		emitProgress(opts, project.ID, types.StageDone, "summary already present, skipped")
		return outcomeSkipped, nil
	}

	// A fresh attempt supersedes any earlier failure marker.
	if err := store.ClearFailure(project.ID); err != nil {
		fmt.Printf("[%d] Warning: Failed to clear failure marker: %v\n", project.ID, err)
	}

	if opts.Verbose {
		printer.PrintProject(project)
	}

	fail := func(stage types.Stage, cause error) outcome {
		fmt.Printf("[%d] ⚠️ Failed at %s: %v\n", project.ID, stage, cause)
		marker := &artifacts.FailureRecord{
			ProjectID: project.ID,
			Stage:     stage,
			Error:     cause.Error(),
			RunID:     runID,
		}
		if err := store.SaveFailure(marker); err != nil {
			fmt.Printf("[%d] Warning: Failed to write failure marker: %v\n", project.ID, err)
		}
		emitProgress(opts, project.ID, types.StageFailed, cause.Error())
		return outcomeFailed
	}

	// Stage 1/4: search queries
	var querySet *types.SearchQuerySet
	if !opts.Force && store.HasQueries(project.ID) {
		set, err := store.LoadQueries(project.ID)
		if err != nil {
			return fail(types.StageQueriesReady, err), nil
		}
		querySet = set
		if opts.Verbose {
			fmt.Printf("[%d] Using cached queries\n", project.ID)
		}
	} else {
		fmt.Printf("[%d] Step 1/4: Synthesizing search queries...\n", project.ID)
		set, err := queries.Synthesize(ctx, project, opts.Client)
		if err != nil {
			if ctx.Err() != nil {
				return outcomeFailed, ctx.Err()
			}
			fmt.Printf("[%d] Warning: Query generation failed (%v), using fallback template\n", project.ID, err)
			set = queries.Fallback(project)
		}
		if err := store.SaveQueries(set); err != nil {
			return fail(types.StageQueriesReady, err), nil
		}
		querySet = set
	}
	if opts.Verbose {
		printer.PrintQuerySet(querySet)
	}
	emitProgress(opts, project.ID, types.StageQueriesReady, "search queries ready")

	// Stage 2/4: web search
	var results *types.SearchResults
	if !opts.Force && store.HasSearch(project.ID) {
		res, err := store.LoadSearch(project.ID)
		if err != nil {
			return fail(types.StageSearched, err), nil
		}
		results = res
		if opts.Verbose {
			fmt.Printf("[%d] Using cached search results\n", project.ID)
		}
	} else {
		fmt.Printf("[%d] Step 2/4: Searching for opposition coverage...\n", project.ID)
		res, err := search.RunQueries(ctx, opts.Searcher, querySet, opts.ResultsPerQuery)
		if err != nil {
			if ctx.Err() != nil {
				return outcomeFailed, ctx.Err()
			}
			// A failed leg already recorded an empty set; the artifact is usable
			fmt.Printf("[%d] Warning: Search degraded: %v\n", project.ID, err)
		}
		if err := store.SaveSearch(res); err != nil {
			return fail(types.StageSearched, err), nil
		}
		results = res
	}
	if opts.Verbose {
		printer.PrintSearchResults(results)
	}
	emitProgress(opts, project.ID, types.StageSearched, fmt.Sprintf("%d unique result URLs", len(results.URLs())))

	// Stage 3/4: content extraction
	var contentSet *types.ContentSet
	if !opts.Force && store.HasContent(project.ID) {
		set, err := store.LoadContent(project.ID)
		if err != nil {
			return fail(types.StageExtracted, err), nil
		}
		contentSet = set
		if opts.Verbose {
			fmt.Printf("[%d] Using cached page content\n", project.ID)
		}
	} else {
		urls := results.URLs()
		fmt.Printf("[%d] Step 3/4: Extracting content from %d pages...\n", project.ID, len(urls))
		set, err := extraction.ExtractAll(ctx, project.ID, urls, opts.Extraction)
		if err != nil {
			if ctx.Err() != nil {
				return outcomeFailed, ctx.Err()
			}
			return fail(types.StageExtracted, err), nil
		}
		if err := store.SaveContent(set); err != nil {
			return fail(types.StageExtracted, err), nil
		}
		contentSet = set
	}
	if opts.Verbose {
		printer.PrintContentSet(contentSet)
	}
	emitProgress(opts, project.ID, types.StageExtracted, "page content ready")

	// Stage 4/4: opposition classification
	fmt.Printf("[%d] Step 4/4: Classifying opposition evidence...\n", project.ID)
	summary, err := classify.Classify(ctx, project, contentSet, opts.Client)
	if err != nil {
		if ctx.Err() != nil {
			return outcomeFailed, ctx.Err()
		}
		return fail(types.StageClassified, err), nil
	}
	if err := store.SaveSummary(summary); err != nil {
		return fail(types.StageClassified, err), nil
	}
	if opts.Verbose {
		printer.PrintSummary(summary)
	}

	// Mirror to database if connected
	if database != nil {
		if err := database.SaveProject(ctx, project); err != nil {
			fmt.Printf("[%d] Warning: Failed to mirror project to database: %v\n", project.ID, err)
		}
		if err := database.SaveSummary(ctx, summary); err != nil {
			fmt.Printf("[%d] Warning: Failed to mirror summary to database: %v\n", project.ID, err)
		}
	}

	fmt.Printf("[%d] ✅ Done: opposition=%t confidence=%.2f\n", project.ID, summary.OppositionPresent, summary.Confidence)
	emitProgress(opts, project.ID, types.StageDone,
		fmt.Sprintf("opposition=%t confidence=%.2f", summary.OppositionPresent, summary.Confidence))
	return outcomeDone, nil
}
