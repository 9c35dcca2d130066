package loader

import (
	"context"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"jsrtgo/httpmodule/cache"
	"jsrtgo/rterr"
)

var allowedContentTypes = map[string]bool{
	"application/javascript": true,
	"text/javascript":        true,
	"application/ecmascript": true,
	"text/ecmascript":        true,
	"text/plain":             true,
}

// commonJSPreamble and commonJSSuffix bracket the fetched source S with the
// literal wrapper text of spec.md §4.7.
const (
	commonJSPreamble = "const module = { exports: {} };\nconst exports = module.exports;\nconst require = globalThis.require;\n"
	commonJSSuffix   = "\nexport default module.exports;\n"
)

// Loader is spec.md §4.7's load_http_module/require_http_module pipeline:
// security gate, cache consult, synchronous GET, content validation,
// cache store, then ESM or CommonJS-wrapped output.
type Loader struct {
	security *Security
	cache    *cache.Cache
	client   *http.Client
}

// NewLoader builds a Loader from process-wide HttpConfig (read once from
// the environment) and a cache sized per JSRT_HTTP_MODULES_CACHE_SIZE.
func NewLoader() *Loader {
	sec := NewSecurity()
	return &Loader{
		security: sec,
		cache:    cache.New(sec.CacheSize),
		client:   &http.Client{Timeout: time.Duration(sec.TimeoutSeconds) * time.Second},
	}
}

// Module is the compiled-shape result of a load, distinguishing the two
// compile paths of spec.md §4.7 step 5.
type Module struct {
	URL    string
	Source string
	ESM    bool
}

// LoadESM fetches url (via cache or network) and returns it for ESM
// compilation (`load`), unwrapped.
func (l *Loader) LoadESM(url string) (*Module, error) {
	src, err := l.fetch(url)
	if err != nil {
		return nil, err
	}
	return &Module{URL: url, Source: src, ESM: true}, nil
}

// RequireCommonJS fetches url and wraps it in the literal CommonJS preamble
// of spec.md §4.7 for evaluation as a module (`require`).
func (l *Loader) RequireCommonJS(url string) (*Module, error) {
	src, err := l.fetch(url)
	if err != nil {
		return nil, err
	}
	wrapped := commonJSPreamble + src + commonJSSuffix
	return &Module{URL: url, Source: wrapped, ESM: false}, nil
}

// fetch runs the security→cache→GET→validate→store pipeline of spec.md
// §4.7 steps 1-5, returning the raw (unwrapped) source text.
func (l *Loader) fetch(rawURL string) (string, error) {
	u, err := l.security.Validate(rawURL)
	if err != nil {
		return "", err
	}
	canonical := u.String()

	if entry, ok := l.cache.Get(canonical); ok {
		return string(entry.Body), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(l.security.TimeoutSeconds)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, canonical, nil)
	if err != nil {
		return "", rterr.New(rterr.SystemErr, "failed to build module request", err).Context("url", canonical)
	}
	req.Header.Set("User-Agent", l.security.UserAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return "", rterr.New(rterr.SystemErr, "module fetch failed", err).Context("url", canonical)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", rterr.New(rterr.ReferenceErr, "module fetch returned non-200").
			Context("url", canonical).Context("status", strconv.Itoa(resp.StatusCode))
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType := ct
		if idx := strings.IndexByte(ct, ';'); idx >= 0 {
			mediaType = ct[:idx]
		}
		mediaType = strings.TrimSpace(mediaType)
		if !allowedContentTypes[mediaType] {
			return "", rterr.New(rterr.SecurityErr, "unsupported module content type").
				Context("url", canonical).Context("content-type", mediaType)
		}
	}

	limited := io.LimitReader(resp.Body, l.security.MaxModuleSize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return "", rterr.New(rterr.SystemErr, "failed reading module body", err).Context("url", canonical)
	}
	if int64(len(body)) > l.security.MaxModuleSize {
		return "", rterr.New(rterr.SecurityErr, "module exceeds max_module_size").
			Context("url", canonical).Context("limit", strconv.FormatInt(l.security.MaxModuleSize, 10))
	}

	l.cache.Put(canonical, body, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"))
	return string(body), nil
}

// ResolveRelative joins a relative `./x` or `../x` specifier against a
// base module URL's directory, per spec.md §4.7/§9: this spec requires
// correct `../` resolution up to the URL root, fixing the reference
// implementation's noted TODO for multi-level traversal. Absolute
// http(s):// specifiers pass through unchanged.
func ResolveRelative(baseURL, specifier string) (string, error) {
	if strings.HasPrefix(specifier, "http://") || strings.HasPrefix(specifier, "https://") {
		return specifier, nil
	}
	if !strings.HasPrefix(specifier, "./") && !strings.HasPrefix(specifier, "../") {
		return "", rterr.New(rterr.ReferenceErr, "not a relative module specifier").Context("specifier", specifier)
	}

	base, err := parseBaseDir(baseURL)
	if err != nil {
		return "", err
	}

	// Join and Clean as an unrooted path so Clean preserves leading ".."
	// elements that climb above the starting directory instead of
	// silently discarding them the way it would for a rooted "/..." path
	// — that preservation is what lets us detect and reject an escape.
	unrooted := strings.TrimPrefix(base.dir, "/")
	cleaned := path.Clean(path.Join(unrooted, specifier))

	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", rterr.New(rterr.SecurityErr, "relative import escapes origin root").
			Context("base", baseURL).Context("specifier", specifier)
	}

	return base.scheme + "://" + base.host + "/" + cleaned, nil
}

type baseDir struct {
	scheme string
	host   string
	dir    string
}

func parseBaseDir(baseURL string) (*baseDir, error) {
	schemeIdx := strings.Index(baseURL, "://")
	if schemeIdx < 0 {
		return nil, rterr.New(rterr.ReferenceErr, "base module URL is not absolute").Context("base", baseURL)
	}
	scheme := baseURL[:schemeIdx]
	rest := baseURL[schemeIdx+3:]

	slashIdx := strings.IndexByte(rest, '/')
	host := rest
	p := "/"
	if slashIdx >= 0 {
		host = rest[:slashIdx]
		p = rest[slashIdx:]
	}

	dir := path.Dir(p)
	return &baseDir{scheme: scheme, host: host, dir: dir}, nil
}
