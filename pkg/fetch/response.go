package fetch

import (
	"bytes"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/net/html/charset"

	"webspider/pkg/parse"
)

// Response is the result of a successful fetch, passed by value to the
// handler and discarded after the handler returns.
type Response struct {
	// URL is the final URL after any redirects.
	URL *url.URL

	// StatusCode and Status mirror the HTTP status line.
	StatusCode int
	Status     string

	// Header holds the response headers.
	Header http.Header

	// Body is the raw response body.
	Body []byte
}

// ContentType returns the Content-Type header value, if any.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Text decodes the body to a string using the charset declared in the
// Content-Type header, falling back to UTF-8 when none is declared or
// the declared encoding is unknown. Returns "" if decoding fails
// outright.
func (r *Response) Text() string {
	reader, err := charset.NewReader(bytes.NewReader(r.Body), r.ContentType())
	if err != nil {
		return string(r.Body)
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return string(decoded)
}

// URLJoin resolves a relative or absolute reference against the final
// URL per standard URL-resolution rules.
func (r *Response) URLJoin(ref string) (string, error) {
	return parse.Resolve(r.URL, ref)
}
