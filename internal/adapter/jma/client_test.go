package jma

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-traffic-etl/internal/observability"
)

func newTestClient(baseURL string, delay, timeout time.Duration) *Client {
	return NewClient(baseURL, DefaultDirectory(), delay, timeout,
		clockwork.NewRealClock(), observability.NewMetricsForTesting(), slog.Default())
}

func TestFetchMonth_RequestShape(t *testing.T) {
	var gotQuery map[string][]string
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0, time.Second)
	body, err := client.FetchMonth(context.Background(), "東京", 2023, time.January)
	require.NoError(t, err)
	assert.Equal(t, []byte("<html>ok</html>"), body)

	assert.Equal(t, []string{"44"}, gotQuery["prec_no"])
	assert.Equal(t, []string{"47662"}, gotQuery["block_no"])
	assert.Equal(t, []string{"2023"}, gotQuery["year"])
	assert.Equal(t, []string{"1"}, gotQuery["month"])
	assert.Equal(t, []string{""}, gotQuery["day"])
	assert.Equal(t, []string{""}, gotQuery["view"])
	assert.NotEmpty(t, gotUA)
	assert.NotContains(t, gotUA, "Go-http-client")
}

func TestFetchMonth_UnknownStationSkipsNetwork(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0, time.Second)
	_, err := client.FetchMonth(context.Background(), "月面基地", 2023, time.January)
	require.ErrorIs(t, err, ErrUnknownStation)
	assert.Zero(t, requests.Load())
}

func TestFetchMonth_HTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0, time.Second)
	_, err := client.FetchMonth(context.Background(), "大阪", 2023, time.June)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, KindHTTPStatus, fetchErr.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.Status)
	assert.Equal(t, "大阪", fetchErr.Location)
}

func TestFetchMonth_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("late"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0, 20*time.Millisecond)
	_, err := client.FetchMonth(context.Background(), "札幌", 2023, time.December)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, KindTimeout, fetchErr.Kind)
}

func TestFetchMonth_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // connection refused from here on

	client := newTestClient(srv.URL, 0, time.Second)
	_, err := client.FetchMonth(context.Background(), "福岡", 2023, time.May)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, KindTransport, fetchErr.Kind)
}

func TestFetchMonth_PacesAnsweredRequests(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(int(status.Load()))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	const delay = 15 * time.Millisecond
	client := newTestClient(srv.URL, delay, time.Second)

	start := time.Now()
	_, err := client.FetchMonth(context.Background(), "東京", 2023, time.January)
	require.NoError(t, err)

	// HTTP errors are answered requests and still pay the delay.
	status.Store(http.StatusInternalServerError)
	_, err = client.FetchMonth(context.Background(), "東京", 2023, time.February)
	require.Error(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 2*delay)
}
