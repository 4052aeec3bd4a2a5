package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippet-lab/internal/apperror"
	"github.com/sakif/snippet-lab/internal/model"
	"github.com/sakif/snippet-lab/internal/notify"
	"github.com/sakif/snippet-lab/internal/repository"
	"github.com/sakif/snippet-lab/internal/repository/memory"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	models  []string
	reply   string
	err     error
}

func (g *fakeGenerator) Generate(_ context.Context, modelID, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	g.models = append(g.models, modelID)
	return g.reply, g.err
}

func (g *fakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (n *recordingNotifier) Notify(message string, severity notify.Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, notify.Notification{Message: message, Severity: severity})
}

func (n *recordingNotifier) All() []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Notification(nil), n.items...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	asst     *Assistant
	gen      *fakeGenerator
	notifier *recordingNotifier
	store    *memory.Store
}

func newFixture(t *testing.T, gen *fakeGenerator) fixture {
	t.Helper()
	store := memory.New()
	n := &recordingNotifier{}
	a := New(gen, store, n, Config{Model: "test-model", Timeout: time.Second}, testLogger())
	return fixture{asst: a, gen: gen, notifier: n, store: store}
}

func (f fixture) addSnippet(t *testing.T, code string) *model.Snippet {
	t.Helper()
	sn := &model.Snippet{Title: "s", Code: code, Language: "GO"}
	require.NoError(t, f.store.Add(context.Background(), sn))
	return sn
}

// =============================================================================
// Sessions
// =============================================================================

func TestOpenSession_EmptyDraft(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})

	s := f.asst.OpenSession()
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, model.Draft{Tags: []string{}}, s.Draft)
	assert.False(t, s.Generating)

	got, err := f.asst.Session(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestSession_Unknown(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})

	_, err := f.asst.Session("missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = f.asst.UpdateDraft("missing", DraftPatch{})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestCloseSession(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})
	s := f.asst.OpenSession()

	f.asst.CloseSession(s.ID)
	f.asst.CloseSession(s.ID)

	_, err := f.asst.Session(s.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestUpdateDraft_DetectsLanguageWhenUnset(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})
	s := f.asst.OpenSession()

	code := "def handler(event):\n    return event"
	got, err := f.asst.UpdateDraft(s.ID, DraftPatch{Code: &code})
	require.NoError(t, err)
	assert.Equal(t, "PYTHON", got.Draft.Language)
}

func TestUpdateDraft_ShortCodeNotDetected(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})
	s := f.asst.OpenSession()

	code := "def f(): pass"
	got, err := f.asst.UpdateDraft(s.ID, DraftPatch{Code: &code})
	require.NoError(t, err)
	assert.Empty(t, got.Draft.Language)
}

func TestUpdateDraft_KeepsExistingLanguage(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})
	s := f.asst.OpenSession()

	lang := "rust"
	code := "def looks_like_python_but_is_not(): pass"
	got, err := f.asst.UpdateDraft(s.ID, DraftPatch{Language: &lang, Code: &code})
	require.NoError(t, err)
	assert.Equal(t, "RUST", got.Draft.Language)
}

func TestUpdateDraft_AppliesFields(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})
	s := f.asst.OpenSession()

	title, desc := "Title", "Desc"
	tags := []string{"a", "a"}
	got, err := f.asst.UpdateDraft(s.ID, DraftPatch{Title: &title, Description: &desc, Tags: &tags})
	require.NoError(t, err)

	assert.Equal(t, "Title", got.Draft.Title)
	assert.Equal(t, "Desc", got.Draft.Description)
	assert.Equal(t, []string{"a", "a"}, got.Draft.Tags)

	// The session keeps its own copy of the tags.
	tags[0] = "changed"
	again, err := f.asst.Session(s.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a"}, again.Draft.Tags)
}

// =============================================================================
// GenerateDraft
// =============================================================================

func TestGenerateDraft_Success(t *testing.T) {
	gen := &fakeGenerator{reply: `Here you go: {"title":"X","language":"go","code":"package main","tags":[],"description":"d"}`}
	f := newFixture(t, gen)
	s := f.asst.OpenSession()

	got, err := f.asst.GenerateDraft(context.Background(), s.ID, "a go main package")
	require.NoError(t, err)

	assert.Equal(t, "X", got.Draft.Title)
	assert.Equal(t, "GO", got.Draft.Language)
	assert.Equal(t, "package main", got.Draft.Code)
	assert.Equal(t, []string{}, got.Draft.Tags)
	assert.Equal(t, "d", got.Draft.Description)
	assert.False(t, got.Generating)

	assert.Equal(t, 1, gen.Calls())
	assert.Equal(t, []string{"test-model"}, gen.models)
	assert.Contains(t, gen.prompts[0], `"a go main package"`)
	assert.Equal(t, []notify.Notification{{Message: MsgGenerated, Severity: notify.Success}}, f.notifier.All())
}

func TestGenerateDraft_EmptyPrompt(t *testing.T) {
	gen := &fakeGenerator{reply: `{"title":"X","code":"y"}`}
	f := newFixture(t, gen)
	s := f.asst.OpenSession()

	for _, p := range []string{"", "   \n\t"} {
		_, err := f.asst.GenerateDraft(context.Background(), s.ID, p)
		assert.True(t, errors.Is(err, apperror.ErrValidation))
	}

	assert.Zero(t, gen.Calls())
	assert.Len(t, f.notifier.All(), 2)
	assert.Equal(t, MsgPromptRequired, f.notifier.All()[0].Message)
	assert.Equal(t, notify.Error, f.notifier.All()[0].Severity)
}

func TestGenerateDraft_Failures(t *testing.T) {
	tests := []struct {
		name      string
		gen       *fakeGenerator
		malformed bool
	}{
		{"endpoint error", &fakeGenerator{err: errors.New("connection refused")}, false},
		{"no braces", &fakeGenerator{reply: "I cannot do that."}, true},
		{"bad json", &fakeGenerator{reply: `{"title": }`}, true},
		{"missing code", &fakeGenerator{reply: `{"title":"only a title"}`}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.gen)
			s := f.asst.OpenSession()
			title := "keep me"
			_, err := f.asst.UpdateDraft(s.ID, DraftPatch{Title: &title})
			require.NoError(t, err)

			_, err = f.asst.GenerateDraft(context.Background(), s.ID, "anything")
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrGeneration))
			assert.Equal(t, tt.malformed, errors.Is(err, apperror.ErrMalformedResponse))

			after, err := f.asst.Session(s.ID)
			require.NoError(t, err)
			assert.Equal(t, "keep me", after.Draft.Title)
			assert.False(t, after.Generating)

			assert.Equal(t, []notify.Notification{{Message: MsgGenerationFailed, Severity: notify.Error}}, f.notifier.All())
			assert.Equal(t, 1, tt.gen.Calls())
		})
	}
}

func TestGenerateDraft_UnknownSession(t *testing.T) {
	gen := &fakeGenerator{reply: `{"title":"X","code":"y"}`}
	f := newFixture(t, gen)

	_, err := f.asst.GenerateDraft(context.Background(), "nope", "prompt")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Zero(t, gen.Calls())
}

// blockingGenerator parks every call until release is closed.
type blockingGenerator struct {
	entered chan struct{}
	release chan struct{}
	reply   string
	calls   int
	mu      sync.Mutex
}

func newBlockingGenerator(reply string) *blockingGenerator {
	return &blockingGenerator{
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
		reply:   reply,
	}
}

func (g *blockingGenerator) Generate(ctx context.Context, _, _ string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return g.reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestGenerateDraft_InFlightConflict(t *testing.T) {
	gen := newBlockingGenerator(`{"title":"X","code":"y"}`)
	store := memory.New()
	a := New(gen, store, &recordingNotifier{}, Config{Timeout: 5 * time.Second}, testLogger())
	s := a.OpenSession()

	done := make(chan error, 1)
	go func() {
		_, err := a.GenerateDraft(context.Background(), s.ID, "first")
		done <- err
	}()
	<-gen.entered

	snap, err := a.Session(s.ID)
	require.NoError(t, err)
	assert.True(t, snap.Generating)

	_, err = a.GenerateDraft(context.Background(), s.ID, "second")
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	close(gen.release)
	require.NoError(t, <-done)

	snap, err = a.Session(s.ID)
	require.NoError(t, err)
	assert.False(t, snap.Generating)
	assert.Equal(t, 1, gen.calls)
}

func TestGenerateDraft_Timeout(t *testing.T) {
	gen := newBlockingGenerator("")
	a := New(gen, memory.New(), &recordingNotifier{}, Config{Timeout: 20 * time.Millisecond}, testLogger())
	s := a.OpenSession()

	_, err := a.GenerateDraft(context.Background(), s.ID, "slow")
	assert.True(t, errors.Is(err, apperror.ErrGeneration))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

// =============================================================================
// Explain
// =============================================================================

func TestExplain_CachesAndToggles(t *testing.T) {
	gen := &fakeGenerator{reply: "  It adds numbers.  "}
	f := newFixture(t, gen)
	sn := f.addSnippet(t, "func add(a, b int) int { return a + b }")

	first, err := f.asst.Explain(context.Background(), sn.ID)
	require.NoError(t, err)
	assert.Equal(t, "It adds numbers.", first.Explanation)
	assert.True(t, first.Visible)
	assert.False(t, first.Cached)
	assert.Contains(t, gen.prompts[0], "Explain this code technically and concisely for a senior developer:\n\n")
	assert.Contains(t, gen.prompts[0], sn.Code)

	stored, err := f.store.GetByID(context.Background(), sn.ID)
	require.NoError(t, err)
	assert.Equal(t, "It adds numbers.", stored.Explanation)

	second, err := f.asst.Explain(context.Background(), sn.ID)
	require.NoError(t, err)
	assert.False(t, second.Visible)
	assert.True(t, second.Cached)
	assert.Equal(t, "It adds numbers.", second.Explanation)

	third, err := f.asst.Explain(context.Background(), sn.ID)
	require.NoError(t, err)
	assert.True(t, third.Visible)

	assert.Equal(t, 1, gen.Calls())
	assert.True(t, f.asst.ExplanationVisible(sn.ID))
}

func TestExplain_EmptyResponseFallback(t *testing.T) {
	gen := &fakeGenerator{reply: "   "}
	f := newFixture(t, gen)
	sn := f.addSnippet(t, "x := 1")

	got, err := f.asst.Explain(context.Background(), sn.ID)
	require.NoError(t, err)
	assert.Equal(t, FallbackExplanation, got.Explanation)

	stored, err := f.store.GetByID(context.Background(), sn.ID)
	require.NoError(t, err)
	assert.Equal(t, FallbackExplanation, stored.Explanation)
}

func TestExplain_FailureLeavesStateUntouched(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	f := newFixture(t, gen)
	sn := f.addSnippet(t, "x := 1")

	_, err := f.asst.Explain(context.Background(), sn.ID)
	assert.True(t, errors.Is(err, apperror.ErrGeneration))

	stored, err := f.store.GetByID(context.Background(), sn.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Explanation)
	assert.False(t, f.asst.ExplanationVisible(sn.ID))
	assert.Equal(t, []notify.Notification{{Message: MsgExplanationFailed, Severity: notify.Error}}, f.notifier.All())

	// A later attempt goes to the endpoint again.
	gen.err = nil
	gen.reply = "ok"
	got, err := f.asst.Explain(context.Background(), sn.ID)
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Explanation)
	assert.Equal(t, 2, gen.Calls())
}

func TestExplain_UnknownSnippet(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	f := newFixture(t, gen)

	_, err := f.asst.Explain(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Zero(t, gen.Calls())
}

func TestExplain_InFlightConflict(t *testing.T) {
	gen := newBlockingGenerator("explained")
	store := memory.New()
	a := New(gen, store, &recordingNotifier{}, Config{Timeout: 5 * time.Second}, testLogger())

	sn := &model.Snippet{Title: "t", Code: "c"}
	require.NoError(t, store.Add(context.Background(), sn))
	other := &model.Snippet{Title: "u", Code: "d"}
	require.NoError(t, store.Add(context.Background(), other))

	done := make(chan error, 2)
	go func() {
		_, err := a.Explain(context.Background(), sn.ID)
		done <- err
	}()
	<-gen.entered

	_, err := a.Explain(context.Background(), sn.ID)
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	// A different snippet is not blocked.
	go func() {
		_, err := a.Explain(context.Background(), other.ID)
		done <- err
	}()
	<-gen.entered

	close(gen.release)
	require.NoError(t, <-done)
	require.NoError(t, <-done)
	assert.Equal(t, 2, gen.calls)
}

// gatedSnippets parks the first GetByID after it has read the snippet.
type gatedSnippets struct {
	repository.SnippetRepository
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func newGatedSnippets(inner repository.SnippetRepository) *gatedSnippets {
	return &gatedSnippets{
		SnippetRepository: inner,
		read:              make(chan struct{}),
		release:           make(chan struct{}),
	}
}

func (g *gatedSnippets) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	sn, err := g.SnippetRepository.GetByID(ctx, id)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.read)
		<-g.release
	}
	return sn, err
}

func TestExplain_SlowReadStillOneCall(t *testing.T) {
	gen := &fakeGenerator{reply: "explained"}
	store := memory.New()
	gated := newGatedSnippets(store)
	a := New(gen, gated, &recordingNotifier{}, Config{Timeout: 5 * time.Second}, testLogger())

	sn := &model.Snippet{Title: "t", Code: "c"}
	require.NoError(t, store.Add(context.Background(), sn))

	type result struct {
		exp Explanation
		err error
	}
	slow := make(chan result, 1)
	go func() {
		exp, err := a.Explain(context.Background(), sn.ID)
		slow <- result{exp, err}
	}()
	<-gated.read

	// The slow caller holds the snippet, so an overlapping caller must not
	// reach the endpoint with its own read.
	_, err := a.Explain(context.Background(), sn.ID)
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	close(gated.release)

	got := <-slow
	require.NoError(t, got.err)
	assert.Equal(t, "explained", got.exp.Explanation)
	assert.False(t, got.exp.Cached)

	again, err := a.Explain(context.Background(), sn.ID)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.False(t, again.Visible)
	assert.Equal(t, "explained", again.Explanation)

	stored, err := store.GetByID(context.Background(), sn.ID)
	require.NoError(t, err)
	assert.Equal(t, "explained", stored.Explanation)
	assert.Equal(t, 1, gen.Calls())
}

// failingCache accepts reads but refuses to store explanations.
type failingCache struct {
	repository.SnippetRepository
}

func (failingCache) SetExplanation(context.Context, string, string) (*model.Snippet, error) {
	return nil, errors.New("write refused")
}

func TestExplain_CacheFailureNotifies(t *testing.T) {
	gen := &fakeGenerator{reply: "explained"}
	store := memory.New()
	n := &recordingNotifier{}
	a := New(gen, failingCache{store}, n, Config{Timeout: time.Second}, testLogger())

	sn := &model.Snippet{Title: "t", Code: "c"}
	require.NoError(t, store.Add(context.Background(), sn))

	_, err := a.Explain(context.Background(), sn.ID)
	require.Error(t, err)
	assert.False(t, a.ExplanationVisible(sn.ID))
	assert.Equal(t, []notify.Notification{{Message: MsgExplanationFailed, Severity: notify.Error}}, n.All())
}
