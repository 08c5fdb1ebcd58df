// Package fetch is the boundary with the HTTP transport: it turns a URL
// into a Response or a distinguishable failure. Retry policy is owned by
// callers; a Fetcher performs a single attempt.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"webspider/pkg/config"
	"webspider/pkg/utils"
)

// Fetcher turns a URL into a Response or an error. Implementations must
// be safe for concurrent use; the crawl engine calls Fetch from many
// workers at once.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

// HTTPFetcher fetches over a shared *http.Client. Any outcome other
// than a 2xx response with a readable body is an error; the engine
// treats every fetch error as terminal for the task.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	log         *logrus.Logger
}

// NewHTTPFetcher creates an HTTPFetcher using the given client and the
// user agent / body cap from cfg.
func NewHTTPFetcher(client *http.Client, cfg *config.Config, log *logrus.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client:      client,
		userAgent:   cfg.UserAgent,
		maxBodySize: cfg.MaxBodySizeBytes,
		log:         log,
	}
}

// Fetch performs a single GET attempt. On a non-2xx status the body is
// drained, closed, and an error wrapping the matching sentinel is
// returned. On success the whole body (up to the configured cap) is read
// into the Response before returning, so the Response owns no open
// connection state.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %w", utils.ErrRequestCreation, rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	reqLog := f.log.WithFields(logrus.Fields{"url": rawURL, "status_code": resp.StatusCode})

	statusCode := resp.StatusCode
	switch {
	case statusCode >= 200 && statusCode < 300:
		// fall through to body read
	case statusCode >= 500:
		reqLog.Debug("Server error status")
		return nil, fmt.Errorf("%w: status %d %s", utils.ErrServerHTTPError, statusCode, resp.Status)
	case statusCode >= 400:
		reqLog.Debug("Client error status")
		return nil, fmt.Errorf("%w: status %d %s", utils.ErrClientHTTPError, statusCode, resp.Status)
	default:
		reqLog.Debug("Unexpected status")
		return nil, fmt.Errorf("%w: status %d %s", utils.ErrOtherHTTPError, statusCode, resp.Status)
	}

	// Read the body with a cap to protect against oversized pages.
	limitedReader := io.LimitReader(resp.Body, f.maxBodySize+1) // +1 to detect exceeding the cap
	body, readErr := io.ReadAll(limitedReader)
	if readErr != nil {
		return nil, fmt.Errorf("%w: reading body from '%s': %w", utils.ErrResponseBodyRead, rawURL, readErr)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, fmt.Errorf("%w: '%s' exceeds max body size (%d bytes)", utils.ErrResponseBodyRead, rawURL, f.maxBodySize)
	}

	reqLog.Debugf("Fetched %d bytes", len(body))
	return &Response{
		URL:        resp.Request.URL, // final URL after redirects
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
