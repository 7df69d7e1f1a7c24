package sink

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func postForm(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := srv.Client().Post(srv.URL+path, "application/x-www-form-urlencoded", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func listSubmissions(t *testing.T, srv *httptest.Server) []Submission {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + "/submissions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var subs []Submission
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&subs))
	return subs
}

func TestReceive(t *testing.T) {
	store := NewStore(0)
	h := NewHandler(store, 0)
	h.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	srv := httptest.NewServer(NewRouter(h, ""))
	defer srv.Close()

	resp := postForm(t, srv, DefaultPath, "data=A123%2CB456&warehouseCode=WH1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	subs := listSubmissions(t, srv)
	require.Len(t, subs, 1)
	require.NotEmpty(t, subs[0].ID)
	require.Equal(t, "A123,B456", subs[0].Data)
	require.Equal(t, []string{"A123", "B456"}, subs[0].Products)
	require.Equal(t, "WH1", subs[0].WarehouseCode)
	require.True(t, subs[0].ReceivedAt.Equal(h.now()))
}

func TestReceiveValidation(t *testing.T) {
	store := NewStore(0)
	srv := httptest.NewServer(NewRouter(NewHandler(store, 0), "/custom"))
	defer srv.Close()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing data", url.Values{"warehouseCode": {"WH1"}}.Encode(), http.StatusBadRequest},
		{"empty data", "data=&warehouseCode=", http.StatusOK},
		{"no warehouse", "data=A1", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postForm(t, srv, "/custom", tt.body)
			require.Equal(t, tt.status, resp.StatusCode)
		})
	}

	subs := store.List()
	require.Len(t, subs, 2)
	require.Empty(t, subs[0].Products)
	require.Equal(t, "", subs[1].WarehouseCode)

	resp := postForm(t, srv, DefaultPath, "data=A1")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestForcedFailure(t *testing.T) {
	store := NewStore(0)
	srv := httptest.NewServer(NewRouter(NewHandler(store, http.StatusInternalServerError), ""))
	defer srv.Close()

	resp := postForm(t, srv, DefaultPath, "data=A1&warehouseCode=WH1")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "500 Internal Server Error", resp.Status)
	require.Zero(t, store.Len())
}

func TestStoreEvictsOldest(t *testing.T) {
	s := NewStore(3)
	for _, id := range []string{"a", "b", "c", "d"} {
		s.Add(Submission{ID: id})
	}
	subs := s.List()
	require.Len(t, subs, 3)
	require.Equal(t, "b", subs[0].ID)
	require.Equal(t, "d", subs[2].ID)
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(NewRouter(NewHandler(NewStore(0), 0), ""))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
