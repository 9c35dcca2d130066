// Package loader implements spec.md §4.7's HTTP-module loader: domain
// allowlist/scheme security gating, cache-backed synchronous fetch, and
// CommonJS/ESM wrapping, grounded on the teacher's httpcli.Request builder
// (context-scoped http.NewRequestWithContext + header assembly + client.Do)
// for the fetch step.
package loader

import (
	"net/url"
	"os"
	"strconv"
	"strings"

	"jsrtgo/rterr"
)

const (
	envEnabled    = "JSRT_HTTP_MODULES_ENABLED"
	envHTTPSOnly  = "JSRT_HTTP_MODULES_HTTPS_ONLY"
	envAllowed    = "JSRT_HTTP_MODULES_ALLOWED"
	envMaxSize    = "JSRT_HTTP_MODULES_MAX_SIZE"
	envTimeout    = "JSRT_HTTP_MODULES_TIMEOUT"
	envUserAgent  = "JSRT_HTTP_MODULES_USER_AGENT"
	envCacheSize  = "JSRT_HTTP_MODULES_CACHE_SIZE"
	defaultMaxSz  = 10 * 1024 * 1024
	defaultTimeS  = 30
	defaultUA     = "jsrt/1.0"
	defaultCache  = 100
)

var defaultAllowedDomains = []string{
	"esm.run", "esm.sh", "cdn.skypack.dev", "cdn.jsdelivr.net", "unpkg.com",
}

// Security is spec.md §3's HttpConfig: the process-wide, env-initialized
// gate that load_http_module/require_http_module consult before any
// network access.
type Security struct {
	Enabled        bool
	HTTPSOnly      bool
	AllowedDomains map[string]bool
	MaxModuleSize  int64
	TimeoutSeconds int
	UserAgent      string
	CacheSize      int
}

// NewSecurity loads HttpConfig from the JSRT_HTTP_MODULES_* environment
// variables, per spec.md §6's table, defaulting every field when its
// variable is unset or unparsable.
func NewSecurity() *Security {
	s := &Security{
		Enabled:        envBool(envEnabled, true),
		HTTPSOnly:      envBool(envHTTPSOnly, true),
		AllowedDomains: make(map[string]bool),
		MaxModuleSize:  envInt64(envMaxSize, defaultMaxSz),
		TimeoutSeconds: envInt(envTimeout, defaultTimeS),
		UserAgent:      envString(envUserAgent, defaultUA),
		CacheSize:      envInt(envCacheSize, defaultCache),
	}

	domains := defaultAllowedDomains
	if v := os.Getenv(envAllowed); v != "" {
		domains = strings.Split(v, ",")
	}
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if d != "" {
			s.AllowedDomains[d] = true
		}
	}
	return s
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Validate runs the four HttpSecurity gates of spec.md §4.7 step 1: module
// loading enabled, URL parseable, scheme allowed, domain allowlisted.
func (s *Security) Validate(rawURL string) (*url.URL, error) {
	if !s.Enabled {
		return nil, rterr.New(rterr.SecurityErr, "HTTP module loading disabled").Context("url", rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, rterr.New(rterr.SecurityErr, "module URL is not parseable").Context("url", rawURL)
	}

	if s.HTTPSOnly && u.Scheme != "https" {
		return nil, rterr.New(rterr.SecurityErr, "https required").Context("url", rawURL).Context("scheme", u.Scheme)
	}

	host := u.Hostname()
	if !s.AllowedDomains[host] {
		return nil, rterr.New(rterr.SecurityErr, "domain not allowed").Context("url", rawURL).Context("domain", host)
	}

	return u, nil
}
