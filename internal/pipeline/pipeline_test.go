package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/renewable-watch/internal/artifacts"
	"github.com/jonathan/renewable-watch/internal/classify"
	"github.com/jonathan/renewable-watch/internal/extraction"
	"github.com/jonathan/renewable-watch/internal/llm"
	"github.com/jonathan/renewable-watch/internal/search"
	"github.com/jonathan/renewable-watch/internal/types"
)

// mockLLM serves canned stage responses: the lite tier answers query
// synthesis, the standard tier answers classification.
type mockLLM struct {
	mu            sync.Mutex
	queriesJSON   string
	verdictJSON   string
	queriesErr    error
	classifyErr   error
	queriesCalls  int
	classifyCalls int
}

func (m *mockLLM) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return m.GenerateJSON(ctx, prompt, tier)
}

func (m *mockLLM) GenerateJSON(ctx context.Context, _ string, tier llm.ModelTier) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if tier == llm.TierLite {
		m.queriesCalls++
		if m.queriesErr != nil {
			return "", m.queriesErr
		}
		return m.queriesJSON, nil
	}
	m.classifyCalls++
	if m.classifyErr != nil {
		return "", m.classifyErr
	}
	return m.verdictJSON, nil
}

func (m *mockLLM) GetModel(llm.ModelTier) string { return "mock-model" }
func (m *mockLLM) Close() error                  { return nil }

func (m *mockLLM) counts() (queriesCalls, classifyCalls int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queriesCalls, m.classifyCalls
}

// stubSearcher returns fixed results per language and counts calls.
type stubSearcher struct {
	mu      sync.Mutex
	results map[string][]types.SearchResult
	err     error
	calls   int
}

func (s *stubSearcher) Search(_ context.Context, _ string, language string, _ int) ([]types.SearchResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	return s.results[language], nil
}

func (s *stubSearcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

const testArticleHTML = `<!DOCTYPE html>
<html>
<head><title>Teesta protest coverage</title></head>
<body>
<nav>Home | Bangladesh | Environment</nav>
<article>
<h1>Villagers protest solar park land acquisition</h1>
<p>Hundreds of villagers blocked the Rangpur highway on Sunday to protest the
acquisition of farmland for the solar park, demanding compensation at market
rates before construction begins.</p>
<p>Local leaders said the district administration had not consulted affected
families and warned the demonstrations would continue.</p>
</article>
<footer>Copyright</footer>
</body>
</html>`

// newArticleServer serves a fixed news article and counts fetches.
func newArticleServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(testArticleHTML))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func validQueriesJSON() string {
	return `{"english_query": "\"Test Solar Park\" Dhaka protest", "bangla_query": "টেস্ট সোলার পার্ক প্রতিবাদ"}`
}

func validVerdictJSON(t *testing.T, sourceURLs ...string) string {
	t.Helper()
	sources := make([]map[string]string, 0, len(sourceURLs))
	for _, u := range sourceURLs {
		sources = append(sources, map[string]string{
			"url":     u,
			"excerpt": "Hundreds of villagers blocked the Rangpur highway.",
		})
	}
	data, err := json.Marshal(map[string]any{
		"opposition_present": len(sourceURLs) > 0,
		"confidence":         0.85,
		"rationale":          "News coverage describes highway blockades over land acquisition.",
		"opposition_types":   []string{"protests", "land disputes"},
		"supporting_sources": sources,
	})
	require.NoError(t, err)
	return string(data)
}

func testProject(id int) types.ProjectRecord {
	return types.ProjectRecord{ID: id, Name: "Test Solar Park", Location: "Dhaka"}
}

// fastExtraction disables the polite delay so tests run quickly.
func fastExtraction() *extraction.Options {
	return &extraction.Options{FetchTimeout: 5 * time.Second}
}

func newRunOptions(store *artifacts.Store, client llm.Client, searcher search.Searcher, projects ...types.ProjectRecord) RunOptions {
	return RunOptions{
		Projects:        projects,
		Store:           store,
		Client:          client,
		Searcher:        searcher,
		Extraction:      fastExtraction(),
		ResultsPerQuery: 5,
		Workers:         1,
	}
}

func TestRun_ValidatesOptions(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())
	client := &mockLLM{}
	searcher := &stubSearcher{}

	_, err := Run(context.Background(), RunOptions{Client: client, Searcher: searcher})
	require.Error(t, err)

	_, err = Run(context.Background(), RunOptions{Store: store, Searcher: searcher})
	require.Error(t, err)

	_, err = Run(context.Background(), RunOptions{Store: store, Client: client})
	require.Error(t, err)
}

func TestRun_ZeroSearchResultsReachesDone(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())
	client := &mockLLM{queriesJSON: validQueriesJSON()}
	searcher := &stubSearcher{results: map[string][]types.SearchResult{}}

	result, err := Run(context.Background(), newRunOptions(store, client, searcher, testProject(200)))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Zero(t, result.Failed)
	assert.Zero(t, result.Skipped)

	// Every stage left its artifact behind
	assert.True(t, store.HasQueries(200))
	assert.True(t, store.HasSearch(200))
	assert.True(t, store.HasContent(200))
	assert.True(t, store.HasSummary(200))
	assert.Equal(t, types.StageDone, store.StageFor(200))

	summary, err := store.LoadSummary(200)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.False(t, summary.OppositionPresent)
	assert.Equal(t, 0.0, summary.Confidence)
	assert.Equal(t, classify.EmptyCorpusRationale, summary.Rationale)
	assert.NotNil(t, summary.SupportingSources)
	assert.Empty(t, summary.SupportingSources)

	// Empty corpus short-circuits without a classification call
	queriesCalls, classifyCalls := client.counts()
	assert.Equal(t, 1, queriesCalls)
	assert.Zero(t, classifyCalls)

	manifest, err := store.LatestRun()
	require.NoError(t, err)
	require.NotNil(t, manifest)
	assert.Equal(t, result.RunID, manifest.RunID)
	assert.Equal(t, 1, manifest.Projects)
	assert.Equal(t, 1, manifest.Succeeded)
	assert.Equal(t, []artifacts.ProjectOutcome{{ProjectID: 200, Outcome: "done"}}, manifest.Outcomes)
	assert.False(t, manifest.FinishedAt.IsZero())
}

func TestRun_FailedFetchStillReachesDone(t *testing.T) {
	deadServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(deadServer.Close)

	store := artifacts.NewStore(t.TempDir())
	client := &mockLLM{queriesJSON: validQueriesJSON()}
	searcher := &stubSearcher{results: map[string][]types.SearchResult{
		search.LanguageEnglish: {{URL: deadServer.URL + "/story", Title: "Gone"}},
	}}

	result, err := Run(context.Background(), newRunOptions(store, client, searcher, testProject(200)))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)

	// The fetch failure is recorded, the project still finishes
	assert.Equal(t, types.StageDone, store.StageFor(200))
	assert.False(t, store.HasFailure(200))

	content, err := store.LoadContent(200)
	require.NoError(t, err)
	require.Len(t, content.Items, 1)
	assert.Equal(t, types.ExtractionFailed, content.Items[0].Status)

	summary, err := store.LoadSummary(200)
	require.NoError(t, err)
	assert.False(t, summary.OppositionPresent)
	assert.Equal(t, 0.0, summary.Confidence)
}

func TestRun_SearchFailureDegradesToEmpty(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())
	client := &mockLLM{queriesJSON: validQueriesJSON()}
	searcher := &stubSearcher{err: errors.New("quota exhausted")}

	result, err := Run(context.Background(), newRunOptions(store, client, searcher, testProject(200)))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)

	// Both legs failed but the artifact still records the attempted queries
	results, err := store.LoadSearch(200)
	require.NoError(t, err)
	require.Len(t, results.Sets, 2)
	assert.Empty(t, results.Sets[0].Results)
	assert.Empty(t, results.Sets[1].Results)

	assert.Equal(t, types.StageDone, store.StageFor(200))
}

func TestRun_QueryFallbackOnGenerationError(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())
	client := &mockLLM{queriesErr: errors.New("model unavailable")}
	searcher := &stubSearcher{}

	result, err := Run(context.Background(), newRunOptions(store, client, searcher, testProject(200)))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)

	set, err := store.LoadQueries(200)
	require.NoError(t, err)
	require.NotNil(t, set)
	assert.Equal(t, types.OriginFallback, set.Origin)
	assert.Contains(t, set.EnglishQuery, "Test Solar Park")
	assert.NotEmpty(t, set.LocalizedQuery)
}

func TestRun_ClassifierFailureMarksFailed(t *testing.T) {
	server, _ := newArticleServer(t)

	store := artifacts.NewStore(t.TempDir())
	client := &mockLLM{
		queriesJSON: validQueriesJSON(),
		verdictJSON: "this is not json",
	}
	searcher := &stubSearcher{results: map[string][]types.SearchResult{
		search.LanguageEnglish: {{URL: server.URL + "/story", Title: "Protest"}},
	}}

	result, err := Run(context.Background(), newRunOptions(store, client, searcher, testProject(200)))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Succeeded)

	// No summary, but everything before classification survives for resume
	assert.False(t, store.HasSummary(200))
	assert.True(t, store.HasQueries(200))
	assert.True(t, store.HasSearch(200))
	assert.True(t, store.HasContent(200))
	assert.Equal(t, types.StageFailed, store.StageFor(200))

	marker, err := store.LoadFailure(200)
	require.NoError(t, err)
	require.NotNil(t, marker)
	assert.Equal(t, types.StageClassified, marker.Stage)
	assert.Equal(t, result.RunID, marker.RunID)
	assert.NotEmpty(t, marker.Error)

	manifest, err := store.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, []artifacts.ProjectOutcome{{ProjectID: 200, Outcome: "failed"}}, manifest.Outcomes)
}

func TestRun_SameURLFetchedOnce(t *testing.T) {
	server, hits := newArticleServer(t)
	storyURL := server.URL + "/story"

	store := artifacts.NewStore(t.TempDir())
	client := &mockLLM{
		queriesJSON: validQueriesJSON(),
		verdictJSON: validVerdictJSON(t, storyURL),
	}
	searcher := &stubSearcher{results: map[string][]types.SearchResult{
		search.LanguageEnglish: {{URL: storyURL, Title: "Protest"}},
		search.LanguageBangla:  {{URL: storyURL, Title: "প্রতিবাদ"}},
	}}

	result, err := Run(context.Background(), newRunOptions(store, client, searcher, testProject(200)))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)

	assert.Equal(t, int32(1), hits.Load())

	content, err := store.LoadContent(200)
	require.NoError(t, err)
	require.Len(t, content.Items, 1)
	assert.Equal(t, types.ExtractionOK, content.Items[0].Status)

	summary, err := store.LoadSummary(200)
	require.NoError(t, err)
	assert.True(t, summary.OppositionPresent)
	require.Len(t, summary.SupportingSources, 1)
	assert.Equal(t, storyURL, summary.SupportingSources[0].URL)
}

func TestRun_ResumeSkipsCompletedProjects(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())
	client := &mockLLM{queriesJSON: validQueriesJSON()}
	searcher := &stubSearcher{}

	opts := newRunOptions(store, client, searcher, testProject(200))
	_, err := Run(context.Background(), opts)
	require.NoError(t, err)

	firstBytes, err := os.ReadFile(store.SummaryPath(200))
	require.NoError(t, err)
	queriesBefore, _ := client.counts()
	searchesBefore := searcher.callCount()

	result, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Succeeded)
	assert.Zero(t, result.Failed)

	// Nothing was recomputed and the artifact is byte-identical
	queriesAfter, classifyAfter := client.counts()
	assert.Equal(t, queriesBefore, queriesAfter)
	assert.Zero(t, classifyAfter)
	assert.Equal(t, searchesBefore, searcher.callCount())

	secondBytes, err := os.ReadFile(store.SummaryPath(200))
	require.NoError(t, err)
	assert.Equal(t, firstBytes, secondBytes)
}

func TestRun_ResumeAfterFailureReusesArtifacts(t *testing.T) {
	server, hits := newArticleServer(t)
	storyURL := server.URL + "/story"

	store := artifacts.NewStore(t.TempDir())
	client := &mockLLM{
		queriesJSON: validQueriesJSON(),
		verdictJSON: "garbage",
	}
	searcher := &stubSearcher{results: map[string][]types.SearchResult{
		search.LanguageEnglish: {{URL: storyURL, Title: "Protest"}},
	}}

	opts := newRunOptions(store, client, searcher, testProject(200))
	result, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.Failed)
	require.Equal(t, int32(1), hits.Load())

	// Fix the classifier and rerun: earlier stages come from disk
	client.mu.Lock()
	client.verdictJSON = validVerdictJSON(t, storyURL)
	client.mu.Unlock()

	result, err = Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Zero(t, result.Failed)

	queriesCalls, classifyCalls := client.counts()
	assert.Equal(t, 1, queriesCalls, "queries should be loaded from disk on resume")
	assert.Equal(t, 2, classifyCalls)
	assert.Equal(t, 2, searcher.callCount(), "search should not rerun on resume")
	assert.Equal(t, int32(1), hits.Load(), "content should be loaded from disk on resume")

	assert.False(t, store.HasFailure(200))
	assert.Equal(t, types.StageDone, store.StageFor(200))

	summary, err := store.LoadSummary(200)
	require.NoError(t, err)
	assert.True(t, summary.OppositionPresent)
}

func TestRun_ForceReprocesses(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())
	client := &mockLLM{queriesJSON: validQueriesJSON()}
	searcher := &stubSearcher{}

	opts := newRunOptions(store, client, searcher, testProject(200))
	_, err := Run(context.Background(), opts)
	require.NoError(t, err)

	opts.Force = true
	result, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Zero(t, result.Skipped)

	queriesCalls, _ := client.counts()
	assert.Equal(t, 2, queriesCalls, "force should resynthesize queries")
	assert.Equal(t, 4, searcher.callCount(), "force should rerun searches")
}

func TestRun_WorkerPoolProcessesAllProjects(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())
	client := &mockLLM{queriesJSON: validQueriesJSON()}
	searcher := &stubSearcher{}

	opts := newRunOptions(store, client, searcher,
		testProject(1), testProject(2), testProject(3), testProject(4))
	opts.Workers = 2

	result, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Succeeded)

	for id := 1; id <= 4; id++ {
		assert.True(t, store.HasSummary(id), "project %d should have a summary", id)
	}

	manifest, err := store.LatestRun()
	require.NoError(t, err)
	require.Len(t, manifest.Outcomes, 4)
	for i, want := range []int{1, 2, 3, 4} {
		assert.Equal(t, want, manifest.Outcomes[i].ProjectID)
		assert.Equal(t, "done", manifest.Outcomes[i].Outcome)
	}
	assert.Equal(t, 2, manifest.Workers)
}

func TestRun_ContextCancelledAbortsWithoutMarker(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())
	client := &mockLLM{queriesJSON: validQueriesJSON()}
	searcher := &stubSearcher{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, newRunOptions(store, client, searcher, testProject(200)))
	require.Error(t, err)

	// Cancellation is not a project failure
	assert.False(t, store.HasFailure(200))
	assert.False(t, store.HasSummary(200))
}
