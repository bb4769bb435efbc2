// Package mimetype determines the encoding of an image source, memoizing
// one result per source identifier.
package mimetype

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// sniffLen is how much of a GET payload is read for content sniffing,
// matching what net/http itself sniffs.
const sniffLen = 512

// Resolver resolves the MIME type of an image source identifier (URL or
// data URI). Every outcome, including "unknown", is cached for the
// lifetime of the Resolver, so a given identifier is resolved over the
// network at most once. Concurrent calls for the same not-yet-cached
// identifier share a single in-flight resolution.
//
// Correctness of the cache depends on source identifiers being immutable:
// entries are never evicted or invalidated.
type Resolver struct {
	client *http.Client
	log    *slog.Logger

	mu    sync.Mutex
	cache map[string]string
	group singleflight.Group
}

// NewResolver creates a Resolver with a default HTTP client and logger.
func NewResolver() *Resolver {
	return NewResolverWith(nil, nil)
}

// NewResolverWith creates a Resolver using the given HTTP client and
// logger. Either may be nil, in which case defaults are used.
func NewResolverWith(client *http.Client, logger *slog.Logger) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		client: client,
		log:    logger,
		cache:  make(map[string]string),
	}
}

// Resolve returns the MIME type of the given source identifier, or ""
// when it cannot be determined. Resolution never fails: network errors
// and malformed sources are logged and degrade to "".
func (r *Resolver) Resolve(ctx context.Context, source string) string {
	r.mu.Lock()
	if m, ok := r.cache[source]; ok {
		r.mu.Unlock()
		return m
	}
	r.mu.Unlock()

	v, _, _ := r.group.Do(source, func() (interface{}, error) {
		m := r.resolve(ctx, source)
		r.mu.Lock()
		r.cache[source] = m
		r.mu.Unlock()
		return m, nil
	})
	return v.(string)
}

// Cached returns the cached MIME type for source and whether it has been
// resolved yet. An unknown-but-resolved source returns ("", true).
func (r *Resolver) Cached(source string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.cache[source]
	return m, ok
}

func (r *Resolver) resolve(ctx context.Context, source string) string {
	if source == "" {
		return ""
	}
	if strings.HasPrefix(source, "data:") {
		return FromDataURI(source)
	}
	if m := r.head(ctx, source); m != "" {
		return m
	}
	return r.get(ctx, source)
}

// FromDataURI extracts the MIME type of a data URI: the substring between
// the "data:" prefix and the first ";". Malformed URIs (no ";" after the
// prefix) yield "".
func FromDataURI(uri string) string {
	i := strings.Index(uri, ";")
	if i < len("data:") {
		return ""
	}
	return uri[len("data:"):i]
}

// head issues a HEAD request and returns the Content-Type header's media
// type, or "" when the request fails or the header is absent.
func (r *Resolver) head(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		r.log.Debug("mime head request failed", "url", url, "error", err)
		return ""
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Debug("mime head request failed", "url", url, "error", err)
		return ""
	}
	defer resp.Body.Close()
	m := mediaType(resp.Header.Get("Content-Type"))
	if m == "application/octet-stream" {
		// Generic type carries no encoding information; fall through
		// to the full fetch.
		return ""
	}
	return m
}

// get fetches the source and determines its type from the response
// header, falling back to sniffing the payload bytes.
func (r *Resolver) get(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		r.log.Debug("mime get request failed", "url", url, "error", err)
		return ""
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Debug("mime get request failed", "url", url, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if m := mediaType(resp.Header.Get("Content-Type")); m != "" && m != "application/octet-stream" {
		return m
	}

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(resp.Body, buf)
	if err != nil && n == 0 {
		r.log.Debug("mime sniff failed", "url", url, "error", err)
		return ""
	}
	sniffed := http.DetectContentType(buf[:n])
	if sniffed == "application/octet-stream" {
		// DetectContentType's catch-all; treat as undeterminable.
		return ""
	}
	return mediaType(sniffed)
}

// mediaType strips parameters from a Content-Type value. An empty or
// unparseable value yields "".
func mediaType(v string) string {
	if v == "" {
		return ""
	}
	m, _, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return m
}
