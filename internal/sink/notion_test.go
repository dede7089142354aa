package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redirect sends every request to the test server.
type redirect struct {
	target *url.URL
}

func (rt redirect) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = rt.target.Scheme
	r.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

func TestNotion_VerifyAndAppend(t *testing.T) {
	var page map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/databases/db-1/query":
			_, _ = w.Write([]byte(`{"object":"list","results":[],"has_more":false}`))
		case "/v1/pages":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&page))
			_, _ = w.Write([]byte(`{"object":"page","id":"page-1","parent":{"type":"database_id","database_id":"db-1"},"properties":{}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"object":"error","status":404,"code":"object_not_found","message":"nope"}`))
		}
	}))
	defer srv.Close()

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	n := NewNotion("secret", &http.Client{Transport: redirect{target: target}})
	ctx := context.Background()

	_, err = n.CreateDestination(ctx)
	assert.ErrorIs(t, err, ErrNoDestination)
	assert.ErrorIs(t, n.AppendRecord(ctx, listing("1", true)), ErrNoDestination)

	require.NoError(t, n.VerifyAccess(ctx, "db-1"))
	l := listing("5", true)
	l.LastPostedAt = "2026-01-01"
	require.NoError(t, n.AppendRecord(ctx, l))

	props, ok := page["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "Title")
	assert.Contains(t, props, "Posted")
	match := props["Match Criteria"].(map[string]any)
	assert.Equal(t, true, match["checkbox"])

	assert.Error(t, n.VerifyAccess(ctx, "db-missing"))
}
