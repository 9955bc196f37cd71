package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestFormatHeaders(t *testing.T) {
	require.Equal(t, "", formatHeaders(http.Header{}))
	require.Equal(
		t,
		"Accept: text/html\nX-Multi: a\nX-Multi: b",
		formatHeaders(http.Header{
			"X-Multi": {"a", "b"},
			"Accept":  {"text/html"},
		}),
	)
}

func TestInstrumentClientDumpsExchanges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<p>tracked</p>"))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "http")
	out, err := NewFilesystemOutput(dir, "run")
	require.NoError(t, err)

	client := resty.New()
	InstrumentClient(client, nil, out)

	res, err := client.R().
		SetFormData(map[string]string{"wpcargo_tracking_number": "CH01CH7546"}).
		Post(srv.URL + "/track-vehicle/")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())

	dump, err := os.ReadFile(filepath.Join(dir, "run-1.txt"))
	require.NoError(t, err)
	require.Contains(t, string(dump), "POST "+srv.URL+"/track-vehicle/")
	require.Contains(t, string(dump), "200 OK")
	require.Contains(t, string(dump), "<p>tracked</p>")
}

func TestInstrumentClientWithoutOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := resty.New()
	InstrumentClient(client, nil, nil)

	res, err := client.R().Get(srv.URL)
	require.NoError(t, err)
	require.True(t, res.IsError())
}
