package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobfilter-automation/internal/dedup"
)

type fakeCard struct {
	fields   map[FieldKind]string
	detached bool
}

type fakeSource struct {
	cards   []*fakeCard
	listErr error
}

func (s *fakeSource) ListCandidateItems(context.Context) ([]Item, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	items := make([]Item, len(s.cards))
	for i, c := range s.cards {
		items[i] = c
	}
	return items, nil
}

func (s *fakeSource) ReadField(_ context.Context, item Item, kind FieldKind) (string, error) {
	c := item.(*fakeCard)
	if c.detached {
		return "", ErrDetached
	}
	return c.fields[kind], nil
}

func card(id, title, company, location string) *fakeCard {
	return &fakeCard{fields: map[FieldKind]string{
		FieldID:       id,
		FieldTitle:    title,
		FieldCompany:  company,
		FieldLocation: location,
		FieldURL:      "/jobs/view/" + id + "/?refId=abc",
	}}
}

func TestExtract_PageOrderAndCanonicalURL(t *testing.T) {
	src := &fakeSource{cards: []*fakeCard{
		card("1", " Frontend  Engineer ", "Acme", "Jakarta"),
		card("2", "React Developer", "Globex", "Remote"),
	}}

	res, err := NewExtractor().Extract(context.Background(), src, dedup.NewSet(), 25)
	require.NoError(t, err)

	require.Len(t, res.Listings, 2)
	assert.Equal(t, "1", res.Listings[0].ID)
	assert.Equal(t, "Frontend Engineer", res.Listings[0].Title)
	assert.Equal(t, "https://www.linkedin.com/jobs/view/1/", res.Listings[0].URL)
	assert.False(t, res.Listings[0].MatchCriteria)
	assert.Equal(t, "2", res.Listings[1].ID)
	assert.Zero(t, res.Duplicates)
	assert.Zero(t, res.Skipped)
}

func TestExtract_SkipsIncompleteAndDetached(t *testing.T) {
	noCompany := card("2", "Dev", "", "Remote")
	noID := card("", "Dev", "Acme", "Remote")
	detached := card("4", "Dev", "Acme", "Remote")
	detached.detached = true

	src := &fakeSource{cards: []*fakeCard{
		card("1", "Dev", "Acme", "Remote"),
		noCompany,
		noID,
		detached,
		card("5", "Dev", "Acme", "Remote"),
	}}

	res, err := NewExtractor().Extract(context.Background(), src, dedup.NewSet(), 0)
	require.NoError(t, err)

	require.Len(t, res.Listings, 2)
	assert.Equal(t, "1", res.Listings[0].ID)
	assert.Equal(t, "5", res.Listings[1].ID)
	assert.Equal(t, 3, res.Skipped)
}

func TestExtract_DuplicatesAgainstSeen(t *testing.T) {
	seen := dedup.NewSet()
	seen.Add("1")

	src := &fakeSource{cards: []*fakeCard{
		card("1", "Dev", "Acme", "Remote"),
		card("2", "Dev", "Acme", "Remote"),
		card("2", "Dev", "Acme", "Remote"),
	}}

	res, err := NewExtractor().Extract(context.Background(), src, seen, 10)
	require.NoError(t, err)

	require.Len(t, res.Listings, 1)
	assert.Equal(t, "2", res.Listings[0].ID)
	assert.Equal(t, 2, res.Duplicates)
	assert.True(t, seen.Has("2"))
}

func TestExtract_RespectsMaxCount(t *testing.T) {
	src := &fakeSource{cards: []*fakeCard{
		card("1", "Dev", "Acme", "Remote"),
		card("2", "Dev", "Acme", "Remote"),
		card("3", "Dev", "Acme", "Remote"),
	}}

	res, err := NewExtractor().Extract(context.Background(), src, dedup.NewSet(), 2)
	require.NoError(t, err)
	assert.Len(t, res.Listings, 2)
}

func TestExtract_ListFailure(t *testing.T) {
	src := &fakeSource{listErr: errors.New("page gone")}
	_, err := NewExtractor().Extract(context.Background(), src, dedup.NewSet(), 10)
	assert.Error(t, err)
}

func TestListingApply(t *testing.T) {
	l := Listing{ID: "9"}
	l.Apply(Detail{Description: "desc", LastPostedAt: "2026-01-02", EstimateTotalApplicants: "42"})
	assert.Equal(t, "desc", l.Description)
	assert.Equal(t, "2026-01-02", l.LastPostedAt)
	assert.Equal(t, "42", l.EstimateTotalApplicants)
}
