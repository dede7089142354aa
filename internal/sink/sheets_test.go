package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type fakeSheetsAPI struct {
	mu       sync.Mutex
	created  int
	appended [][]interface{}
	header   [][]interface{}
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && path == "/v4/spreadsheets":
		f.created++
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	case r.Method == http.MethodPut && strings.HasPrefix(path, "/v4/spreadsheets/sheet-1/values/"):
		var vr struct {
			Values [][]interface{} `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.header = vr.Values
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var vr struct {
			Values [][]interface{} `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.appended = append(f.appended, vr.Values...)
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodGet && path == "/v4/spreadsheets/sheet-1":
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
	}
}

func newTestSheets(t *testing.T, api *fakeSheetsAPI) *Sheets {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	s, err := NewSheets(context.Background(), "",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return s
}

func TestSheets_CreateVerifyAppend(t *testing.T) {
	ctx := context.Background()
	api := &fakeSheetsAPI{}
	s := newTestSheets(t, api)

	id, err := s.CreateDestination(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sheet-1", id)

	// idempotent within a run
	_, err = s.CreateDestination(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, api.created)
	require.Len(t, api.header, 1)
	assert.Equal(t, "Match Criteria", api.header[0][0])

	require.NoError(t, s.VerifyAccess(ctx, id))
	require.NoError(t, s.AppendRecord(ctx, listing("77", true)))
	require.Len(t, api.appended, 1)
	assert.Equal(t, []interface{}{"TRUE", "Go Engineer, Platform", `Acme "Labs"`, "Remote", "https://www.linkedin.com/jobs/view/77/"}, api.appended[0])

	require.NoError(t, s.Finish(ctx, Summary{}))
	assert.ErrorIs(t, s.AppendRecord(ctx, listing("78", false)), ErrNoDestination)
}

func TestSheets_VerifyUnknown(t *testing.T) {
	s := newTestSheets(t, &fakeSheetsAPI{})
	assert.Error(t, s.VerifyAccess(context.Background(), "missing"))
	assert.ErrorIs(t, s.AppendRecord(context.Background(), listing("1", true)), ErrNoDestination)
}
