package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	assert.Equal(t, "Senior Frontend Engineer", Text("  Senior Frontend \n\t Engineer "))
	assert.Equal(t, "", Text(" \n "))
}

func TestFold(t *testing.T) {
	assert.Equal(t, Fold("ho chi minh"), Fold("Hồ Chí Minh"))
	assert.Equal(t, "react", Fold("REACT"))
}

func TestSplitList(t *testing.T) {
	got := SplitList(" frontend, React ,,react, full stack ")
	assert.Equal(t, []string{"frontend", "React", "full stack"}, got)
	assert.Empty(t, SplitList(""))
}

func TestMetaParts(t *testing.T) {
	assert.Equal(t,
		[]string{"Jakarta, Indonesia", "2 weeks ago", "Over 100 applicants"},
		MetaParts("Jakarta, Indonesia Â· 2 weeks ago · Over 100 applicants"))
}

func TestPostedDate(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "epoch millis", raw: "1767225600000", want: "2026-01-01"},
		{name: "iso", raw: "2026-02-03T10:00:00Z", want: "2026-02-03"},
		{name: "day first", raw: "05/02/2026", want: "2026-02-05"},
		{name: "day first leap day", raw: "29/02/2028", want: "2028-02-29"},
		{name: "day first impossible day", raw: "31/02/2026", want: ""},
		{name: "day first month out of range", raw: "01/13/2026", want: ""},
		{name: "weeks ago", raw: "2 weeks ago", want: "2026-03-01"},
		{name: "reposted", raw: "Reposted 3 days ago", want: "2026-03-12"},
		{name: "hours ago", raw: "5 hours ago", want: "2026-03-15"},
		{name: "garbage", raw: "sometime", want: ""},
		{name: "empty", raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PostedDate(tt.raw, now))
		})
	}
}

func TestEpochMillis(t *testing.T) {
	assert.Equal(t, "", EpochMillis(0))
	assert.Equal(t, "2026-01-01", EpochMillis(1767225600000))
}
