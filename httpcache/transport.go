package httpcache

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/lukemcguire/pepcensus/urlutil"
)

// XFromCache is set to "1" on responses served from the store.
const XFromCache = "X-From-Cache"

// Transport answers GET requests from a Store and stores successful
// responses fetched through Next.
type Transport struct {
	store  *Store
	next   http.RoundTripper
	logger *slog.Logger
}

// NewTransport wraps next with store. A nil next uses http.DefaultTransport.
func NewTransport(store *Store, next http.RoundTripper, logger *slog.Logger) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{store: store, next: next, logger: logger}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.next.RoundTrip(req)
	}

	ctx := req.Context()
	key, err := urlutil.Normalize(req.URL.String())
	if err != nil {
		return t.next.RoundTrip(req)
	}

	entry, ok, err := t.store.Get(ctx, key)
	if err != nil {
		t.logger.WarnContext(ctx, "cache read failed", "url", key, "error", err)
	}
	if ok {
		return cachedResponse(req, entry), nil
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		return resp, err
	}

	body, err := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close response body: %w", closeErr)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	if err := t.store.Put(ctx, key, Entry{Status: resp.StatusCode, Header: resp.Header.Clone(), Body: body}); err != nil {
		t.logger.WarnContext(ctx, "cache write failed", "url", key, "error", err)
	}
	return resp, nil
}

func cachedResponse(req *http.Request, entry *Entry) *http.Response {
	header := entry.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set(XFromCache, "1")

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", entry.Status, http.StatusText(entry.Status)),
		StatusCode:    entry.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(entry.Body)),
		ContentLength: int64(len(entry.Body)),
		Request:       req,
	}
}
