package selection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dhruv3sood/finq/internal/pkg/logger"
	"github.com/Dhruv3sood/finq/internal/repository/memory"
	"github.com/Dhruv3sood/finq/pkg/backend"
	"github.com/Dhruv3sood/finq/pkg/slide"
	"github.com/Dhruv3sood/finq/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecommender struct {
	recs   []string
	err    error
	before func()
}

func (f *fakeRecommender) Recommendations(context.Context, string) ([]string, error) {
	if f.before != nil {
		f.before()
	}
	return f.recs, f.err
}

func readySession(t *testing.T, st *store.Store, id string) {
	t.Helper()
	_, err := st.Create(st.Begin(store.FlowPresentation), id)
	require.NoError(t, err)
}

func newResolver(t *testing.T, rec *fakeRecommender) (*Resolver, *store.Store) {
	t.Helper()
	st := store.New(nil, logger.NewNopLogger())
	r := NewResolver(st, rec, memory.NewSessionRepository[State](time.Hour), nil, logger.NewNopLogger())
	st.OnInvalidate(func(prev store.Session) { r.Close(prev.ID) })
	return r, st
}

func TestDefaultSelection(t *testing.T) {
	r, _ := newResolver(t, &fakeRecommender{})
	r.Open("s1")

	s, ok := r.Selection("s1")
	require.True(t, ok)
	assert.Equal(t, DefaultSelection(), s.Slides)
	assert.Equal(t, SourceDefault, s.Source)
	assert.True(t, r.CanGenerate("s1"))
}

func TestApplyRules(t *testing.T) {
	r, _ := newResolver(t, &fakeRecommender{})
	r.Open("s1")

	_, applied := r.Apply("s1", nil)
	assert.False(t, applied, "empty set is a no-op")

	s, applied := r.Apply("s1", []string{"ratios", "title", "bogus", "title"})
	require.True(t, applied)
	assert.Equal(t, []slide.Kind{slide.KindTitle, slide.KindRatios}, s.Slides)

	_, applied = r.Apply("s1", []string{"title", "ratios"})
	assert.False(t, applied, "same set again")

	s, applied = r.Apply("s1", []string{"title", "leadership"})
	require.True(t, applied, "a differing set replaces the previous one")
	assert.Equal(t, []slide.Kind{slide.KindTitle, slide.KindLeadership}, s.Slides)

	_, err := r.Toggle("s1", "assets")
	require.NoError(t, err)

	s, applied = r.Apply("s1", []string{"executive"})
	assert.False(t, applied, "user edits win")
	assert.Equal(t, []slide.Kind{slide.KindTitle, slide.KindAssets, slide.KindLeadership}, s.Slides)
}

func TestToggle(t *testing.T) {
	r, _ := newResolver(t, &fakeRecommender{})
	r.Open("s1")

	_, err := r.Toggle("s1", "pie_chart")
	assert.ErrorIs(t, err, ErrUnknownSlideType)

	_, err = r.Toggle("missing", "title")
	assert.ErrorIs(t, err, store.ErrNoActiveSession)

	for _, k := range DefaultSelection() {
		_, err := r.Toggle("s1", string(k))
		require.NoError(t, err)
	}
	assert.False(t, r.CanGenerate("s1"))
	_, err = r.BuildRequest("s1", "", "")
	assert.ErrorIs(t, err, ErrEmptySelection)

	s, err := r.Toggle("s1", " Conclusion ")
	require.NoError(t, err)
	assert.True(t, s.Edited())
	assert.Equal(t, []slide.Kind{slide.KindConclusion}, s.Slides)
}

func TestBuildRequestDefaults(t *testing.T) {
	r, _ := newResolver(t, &fakeRecommender{})
	r.Open("s1")

	req, err := r.BuildRequest("s1", "", " ")
	require.NoError(t, err)
	assert.Equal(t, backend.GenerateRequest{
		SessionID: "s1",
		Slides:    []string{"title", "executive", "financials", "ratios", "conclusion"},
		Template:  DefaultTemplate,
		Theme:     DefaultTheme,
	}, req)

	req, err = r.BuildRequest("s1", "modern", "green")
	require.NoError(t, err)
	assert.Equal(t, "modern", req.Template)
	assert.Equal(t, "green", req.Theme)
}

func TestFetch(t *testing.T) {
	rec := &fakeRecommender{recs: []string{"title", "company"}}
	r, st := newResolver(t, rec)

	assert.False(t, r.Fetch(context.Background()), "no session")

	readySession(t, st, "s1")
	r.Open("s1")
	require.True(t, r.Fetch(context.Background()))
	s, _ := r.Selection("s1")
	assert.Equal(t, []slide.Kind{slide.KindTitle, slide.KindCompany}, s.Slides)
}

func TestFetchFailureKeepsDefault(t *testing.T) {
	r, st := newResolver(t, &fakeRecommender{err: errors.New("boom")})
	readySession(t, st, "s1")
	r.Open("s1")

	assert.False(t, r.Fetch(context.Background()))
	s, _ := r.Selection("s1")
	assert.Equal(t, DefaultSelection(), s.Slides)
}

func TestFetchDropsStaleResult(t *testing.T) {
	rec := &fakeRecommender{recs: []string{"title"}}
	r, st := newResolver(t, rec)
	readySession(t, st, "s1")
	r.Open("s1")

	rec.before = func() {
		st.Reset()
		readySession(t, st, "s1")
		r.Open("s1")
	}
	assert.False(t, r.Fetch(context.Background()), "same id, new epoch")

	s, _ := r.Selection("s1")
	assert.Equal(t, DefaultSelection(), s.Slides)
}
