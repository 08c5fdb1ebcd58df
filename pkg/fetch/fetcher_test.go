package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webspider/pkg/config"
	"webspider/pkg/utils"
)

func newTestFetcher(t *testing.T, maxBody int64) *HTTPFetcher {
	t.Helper()
	cfg := &config.Config{MaxBodySizeBytes: maxBody}
	_, err := cfg.Validate()
	require.NoError(t, err)
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	return NewHTTPFetcher(fetchTestClient(cfg, log), cfg, log)
}

func fetchTestClient(cfg *config.Config, log *logrus.Logger) *http.Client {
	return NewClient(cfg.HTTPClientSettings, log)
}

func TestHTTPFetcher_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body>hello</body></html>")
	}))
	defer server.Close()

	f := newTestFetcher(t, 0)
	resp, err := f.Fetch(context.Background(), server.URL+"/page")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, server.URL+"/page", resp.URL.String())
	assert.Contains(t, string(resp.Body), "hello")
	assert.Contains(t, resp.ContentType(), "text/html")
}

func TestHTTPFetcher_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "moved here")
	})

	f := newTestFetcher(t, 0)
	resp, err := f.Fetch(context.Background(), server.URL+"/old")
	require.NoError(t, err)

	// Response reports the final URL after the redirect.
	assert.Equal(t, server.URL+"/new", resp.URL.String())
	assert.Equal(t, "moved here", string(resp.Body))
}

func TestHTTPFetcher_StatusErrors(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
	}{
		{status: http.StatusNotFound, sentinel: utils.ErrClientHTTPError},
		{status: http.StatusForbidden, sentinel: utils.ErrClientHTTPError},
		{status: http.StatusTooManyRequests, sentinel: utils.ErrClientHTTPError},
		{status: http.StatusInternalServerError, sentinel: utils.ErrServerHTTPError},
		{status: http.StatusBadGateway, sentinel: utils.ErrServerHTTPError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			f := newTestFetcher(t, 0)
			resp, err := f.Fetch(context.Background(), server.URL)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestHTTPFetcher_BodySizeCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 2048))
	}))
	defer server.Close()

	f := newTestFetcher(t, 1024)
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrResponseBodyRead)
}

func TestHTTPFetcher_ContextCancellation(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	f := newTestFetcher(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := f.Fetch(ctx, server.URL)
	require.Error(t, err)
}

func TestHTTPFetcher_InvalidRequestURL(t *testing.T) {
	f := newTestFetcher(t, 0)
	_, err := f.Fetch(context.Background(), "http://bad url with spaces")
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrRequestCreation)
}

func TestHTTPFetcher_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close() // nothing listening anymore

	f := newTestFetcher(t, 0)
	start := time.Now()
	_, err := f.Fetch(context.Background(), addr)
	require.Error(t, err)
	// Single attempt: no retry/backoff delay.
	assert.Less(t, time.Since(start), 5*time.Second)
}
