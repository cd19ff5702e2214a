// Package download implements the HTTP side of repository ingest: fetch
// the archive, sniff its content type, capture its ETag, and hand a
// progress-wrapped body to the loader selected for that content type.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/lewisfm/camrete/catalog"
	"github.com/lewisfm/camrete/internal/httputil"
	"github.com/lewisfm/camrete/loader"
	"github.com/lewisfm/camrete/progress"
)

// Accept is the Accept header value sent on every repository fetch.
const Accept = "application/gzip, application/x-gzip, application/zip"

const (
	contentTypeGzip = "gzip"
	contentTypeZip  = "zip"
)

// Result is what a successful Fetch hands back to the caller: a loader
// ready to stream assets, and the ETag observed on the response (empty if
// none was sent).
type Result struct {
	Loader loader.AssetLoader
	ETag   string

	body io.Closer
}

// Close releases the underlying HTTP response body. Callers must call
// Close once they are done draining Loader.AssetStream.
func (r *Result) Close() error { return r.body.Close() }

// Fetch performs the HTTP GET described by spec §4.10: issue the request
// with the fixed Accept header, record Content-Length as the progress
// reporter's expected-bytes figure, determine the content type (response
// header, falling back to URL suffix sniffing), wrap the body so every
// read advances rep's byte counter, and select a loader for that content
// type.
//
// rep may be nil, in which case no progress is reported.
func Fetch(ctx context.Context, client *http.Client, userAgent, url string, rep *progress.Reporter) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &catalog.TransportError{URL: url, Err: err}
	}
	req.Header.Set("Accept", Accept)
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &catalog.TransportError{URL: url, Err: err}
	}

	if err := httputil.CheckResponse(resp, http.StatusOK); err != nil {
		resp.Body.Close()
		return nil, &catalog.TransportError{URL: url, Err: err}
	}

	if rep != nil && resp.ContentLength > 0 {
		rep.SetBytesExpected(uint64(resp.ContentLength))
	}

	etag := resp.Header.Get("ETag")
	if etag != "" && !utf8.ValidString(etag) {
		resp.Body.Close()
		return nil, &catalog.EtagEncodingError{URL: url}
	}

	kind, ok := sniffContentType(resp.Header.Get("Content-Type"), url)
	if !ok {
		resp.Body.Close()
		return nil, &catalog.FormatUnknownError{URL: url, ContentType: resp.Header.Get("Content-Type")}
	}

	body := io.ReadCloser(resp.Body)
	if rep != nil {
		body = &progressReader{r: resp.Body, rep: rep}
	}

	l, err := selectLoader(kind, body)
	if err != nil {
		body.Close()
		ct := resp.Header.Get("Content-Type")
		if ct == "" {
			ct = kind
		}
		return nil, &catalog.FormatUnknownError{URL: url, ContentType: ct}
	}

	return &Result{Loader: l, ETag: etag, body: body}, nil
}

// sniffContentType resolves a response's archive kind, preferring the
// Content-Type header and falling back to a URL-suffix heuristic.
func sniffContentType(header, url string) (kind string, ok bool) {
	h := strings.ToLower(strings.TrimSpace(strings.SplitN(header, ";", 2)[0]))
	switch h {
	case "application/gzip", "application/x-gzip", "application/x-compressed-tar":
		return contentTypeGzip, true
	case "application/zip":
		return contentTypeZip, true
	}

	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return contentTypeGzip, true
	case strings.HasSuffix(lower, ".zip"):
		return contentTypeZip, true
	}

	return "", false
}

func selectLoader(kind string, body io.Reader) (loader.AssetLoader, error) {
	switch kind {
	case contentTypeGzip:
		return loader.NewTarGzAssetLoader(body), nil
	case contentTypeZip:
		return nil, fmt.Errorf("%w: zip archives are recognized but not yet supported", errUnsupportedContentType)
	default:
		return nil, errUnsupportedContentType
	}
}

var errUnsupportedContentType = fmt.Errorf("unsupported content type")

// progressReader wraps a response body, reporting each read's cumulative
// byte count to a progress.Reporter.
type progressReader struct {
	r   io.ReadCloser
	rep *progress.Reporter
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.rep.AddBytesDownloaded(uint64(n))
	}
	return n, err
}

func (p *progressReader) Close() error { return p.r.Close() }
