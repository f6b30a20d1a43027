package security

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
)

// Directive is one Content-Security-Policy directive and its sources.
type Directive struct {
	Name    string
	Sources []string
}

// BuildCSP joins directives in order into a policy header value.
func BuildCSP(directives ...Directive) string {
	parts := make([]string, 0, len(directives))
	for _, d := range directives {
		parts = append(parts, strings.TrimSpace(d.Name+" "+strings.Join(d.Sources, " ")))
	}
	return strings.Join(parts, "; ")
}

// HeadersConfig holds the headers set on every response. Empty values are
// not sent.
type HeadersConfig struct {
	CSP string

	// PageCacheControl applies to everything except static assets, which
	// set their own. Ledger pages change on every write.
	PageCacheControl string

	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginOpener   string
	CrossOriginResource string
}

// DefaultHeadersConfig returns the policy of the ledger pages: no scripts,
// self-hosted CSS, charts inlined as data: PNGs, forms posting back to the
// same origin.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: BuildCSP(
			Directive{"default-src", []string{"'self'"}},
			Directive{"style-src", []string{"'self'"}},
			Directive{"img-src", []string{"'self'", "data:"}},
			Directive{"object-src", []string{"'none'"}},
			Directive{"frame-ancestors", []string{"'none'"}},
			Directive{"base-uri", []string{"'self'"}},
			Directive{"form-action", []string{"'self'"}},
		),
		PageCacheControl: "no-store",

		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,

		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "same-origin",
		PermissionsPolicy:   "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:   "same-origin",
		CrossOriginResource: "same-origin",
	}
}

// HeadersMiddleware applies security headers to responses
type HeadersMiddleware struct {
	static  http.Header
	hsts    string
	useHSTS bool
}

// NewHeadersMiddleware precomputes the header set of config.
func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	h := &HeadersMiddleware{static: http.Header{}}
	for key, value := range map[string]string{
		"Content-Security-Policy":      config.CSP,
		"Cache-Control":                config.PageCacheControl,
		"X-Content-Type-Options":       config.XContentTypeOptions,
		"X-Frame-Options":              config.XFrameOptions,
		"Referrer-Policy":              config.ReferrerPolicy,
		"Permissions-Policy":           config.PermissionsPolicy,
		"Cross-Origin-Opener-Policy":   config.CrossOriginOpener,
		"Cross-Origin-Resource-Policy": config.CrossOriginResource,
	} {
		if value != "" {
			h.static.Set(key, value)
		}
	}
	if config.HSTSMaxAge > 0 {
		h.useHSTS = true
		h.hsts = fmt.Sprintf("max-age=%d", config.HSTSMaxAge)
		if config.HSTSIncludeSubdomains {
			h.hsts += "; includeSubDomains"
		}
	}
	return h
}

// Middleware returns the HTTP middleware function
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		for key, values := range h.static {
			headers[key] = append([]string(nil), values...)
		}
		// HSTS only over TLS
		if h.useHSTS && r.TLS != nil {
			headers.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssets serves the files of fsys with a content-hash ETag and a
// public max-age. Conditional requests carrying a matching If-None-Match
// are answered with 304 by the file server.
func StaticAssets(fsys fs.FS, maxAge time.Duration) (http.Handler, error) {
	etags := make(map[string]string)
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		etags[name] = `"` + hex.EncodeToString(sum[:8]) + `"`
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hash static assets: %w", err)
	}

	files := http.FileServer(http.FS(fsys))
	cacheControl := fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if tag, ok := etags[name]; ok {
			w.Header().Set("ETag", tag)
			w.Header().Set("Cache-Control", cacheControl)
		}
		files.ServeHTTP(w, r)
	}), nil
}
