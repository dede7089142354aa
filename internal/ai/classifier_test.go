package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobfilter-automation/internal/config"
	"go-jobfilter-automation/internal/scraper"
)

type fakeCompleter struct {
	calls  int
	text   string
	tokens int
	err    error
	block  bool
	system string
	user   string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (Completion, error) {
	f.calls++
	f.system, f.user = system, user
	if f.block {
		<-ctx.Done()
		return Completion{}, ctx.Err()
	}
	return Completion{Text: f.text, Tokens: f.tokens}, f.err
}

type fakeLimiter struct {
	before  int
	records []int
	err     error
}

func (f *fakeLimiter) BeforeCall(ctx context.Context) error {
	f.before++
	if f.err != nil {
		return f.err
	}
	return ctx.Err()
}

func (f *fakeLimiter) Record(tokens int) {
	f.records = append(f.records, tokens)
}

func runConfig(include ...string) config.RunConfig {
	return config.RunConfig{
		IncludeKeywords:      include,
		LocationRequirements: []string{"Remote"},
		RequestTimeout:       time.Second,
		AffirmativeToken:     "YES",
	}
}

func newListing() *scraper.Listing {
	return &scraper.Listing{
		ID:          "1",
		Title:       "Backend Engineer",
		Location:    "Remote",
		Description: "Go, Postgres, Kubernetes",
	}
}

func TestClassify_NoKeywordsMatchesWithoutCall(t *testing.T) {
	comp := &fakeCompleter{text: "NO"}
	lim := &fakeLimiter{}
	c := NewClassifier(comp, lim)

	l := newListing()
	match, err := c.Classify(context.Background(), context.Background(), l, runConfig())
	require.NoError(t, err)
	assert.True(t, match)
	assert.Zero(t, comp.calls)
	assert.Zero(t, lim.before)
	assert.Empty(t, l.Description)
}

func TestClassify_Answers(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		err   error
		match bool
	}{
		{"yes", "YES", nil, true},
		{"yes with whitespace", "  YES\n", nil, true},
		{"no", "NO", nil, false},
		{"lowercase yes", "yes", nil, false},
		{"chatty yes", "YES, it matches", nil, false},
		{"provider error", "", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp := &fakeCompleter{text: tt.text, tokens: 120, err: tt.err}
			lim := &fakeLimiter{}
			l := newListing()

			got, err := NewClassifier(comp, lim).Classify(context.Background(), context.Background(), l, runConfig("golang"))
			require.NoError(t, err)
			assert.Equal(t, tt.match, got)
			assert.Equal(t, 1, comp.calls)
			assert.Equal(t, 1, lim.before)
			assert.Empty(t, l.Description)
		})
	}
}

func TestClassify_RecordsTokens(t *testing.T) {
	tests := []struct {
		name    string
		comp    *fakeCompleter
		records []int
	}{
		{"answer", &fakeCompleter{text: "YES", tokens: 321}, []int{321}},
		{"rejected", &fakeCompleter{err: &APIError{StatusCode: 429, Message: "slow down"}}, []int{0}},
		{"unreadable answer", &fakeCompleter{tokens: 40, err: fmt.Errorf("%w: no choices returned", ErrUnusableResponse)}, []int{40}},
		{"transport failure", &fakeCompleter{err: errors.New("connection reset")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lim := &fakeLimiter{}
			_, err := NewClassifier(tt.comp, lim).Classify(context.Background(), context.Background(), newListing(), runConfig("golang"))
			require.NoError(t, err)
			assert.Equal(t, tt.records, lim.records)
		})
	}
}

func TestClassify_Timeout(t *testing.T) {
	comp := &fakeCompleter{block: true}
	lim := &fakeLimiter{}
	rc := runConfig("golang")
	rc.RequestTimeout = 20 * time.Millisecond

	l := newListing()
	start := time.Now()
	match, err := NewClassifier(comp, lim).Classify(context.Background(), context.Background(), l, rc)
	require.NoError(t, err)
	assert.False(t, match)
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, lim.records)
	assert.Empty(t, l.Description)
}

func TestClassify_LimiterCancelled(t *testing.T) {
	comp := &fakeCompleter{text: "YES"}
	lim := &fakeLimiter{err: context.Canceled}

	l := newListing()
	match, err := NewClassifier(comp, lim).Classify(context.Background(), context.Background(), l, runConfig("golang"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, match)
	assert.Zero(t, comp.calls)
	assert.Empty(t, l.Description)
}

func TestClassify_StoppedWaitSkipsCall(t *testing.T) {
	comp := &fakeCompleter{text: "YES"}
	lim := &fakeLimiter{}
	wait, cancel := context.WithCancel(context.Background())
	cancel()

	l := newListing()
	match, err := NewClassifier(comp, lim).Classify(context.Background(), wait, l, runConfig("golang"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, match)
	assert.Zero(t, comp.calls)
	assert.Empty(t, lim.records)
	assert.Empty(t, l.Description)
}

func TestClassify_Prompt(t *testing.T) {
	comp := &fakeCompleter{text: "YES"}
	rc := runConfig("golang", "backend")
	rc.ExcludeKeywords = []string{"php"}

	match, err := NewClassifier(comp, &fakeLimiter{}).Classify(context.Background(), context.Background(), newListing(), rc)
	require.NoError(t, err)
	require.True(t, match)
	assert.Contains(t, comp.system, `strictly "YES"`)
	assert.Contains(t, comp.user, "Conditions: golang, backend.")
	assert.Contains(t, comp.user, "Avoid: php.")
	assert.Contains(t, comp.user, "Location Requirements: Remote")
	assert.Contains(t, comp.user, "Title: Backend Engineer")
	assert.Contains(t, comp.user, "Description: Go, Postgres, Kubernetes")
}
