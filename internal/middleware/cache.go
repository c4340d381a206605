package middleware

import (
	"net/http"
	"path"
	"strings"

	"github.com/mtlprog/slidekit/internal/domain"
)

// Cache-Control directives per asset class.
const (
	CacheControlStatic  = "public, max-age=31536000, immutable"
	CacheControlMarkup  = "public, max-age=3600, must-revalidate"
	CacheControlDefault = "public, max-age=86400"
)

// Policy decides the caching headers for a request path.
type Policy interface {
	Headers(requestPath string) http.Header
}

// CachePolicy classifies paths against an ordered list of rules.
// It holds no mutable state and is safe for concurrent use.
type CachePolicy struct {
	rules []domain.CacheRule
}

// DefaultRules returns the rules in precedence order: static assets, then
// markup, then everything else.
func DefaultRules() []domain.CacheRule {
	return []domain.CacheRule{
		{
			Class:        domain.CacheClassStatic,
			CacheControl: CacheControlStatic,
			Extensions:   []string{"css", "js", "png", "jpg", "jpeg", "gif", "svg", "ico", "woff", "woff2", "ttf", "eot"},
		},
		{
			Class:        domain.CacheClassMarkup,
			CacheControl: CacheControlMarkup,
			Extensions:   []string{"html", "htm"},
		},
		{
			Class:        domain.CacheClassDefault,
			CacheControl: CacheControlDefault,
		},
	}
}

// NewCachePolicy creates a CachePolicy with the default rules.
func NewCachePolicy() *CachePolicy {
	return &CachePolicy{rules: DefaultRules()}
}

// Classify returns the first rule matching the extension of requestPath.
// Any query string is ignored.
func (p *CachePolicy) Classify(requestPath string) domain.CacheRule {
	if i := strings.IndexAny(requestPath, "?#"); i >= 0 {
		requestPath = requestPath[:i]
	}
	ext := strings.TrimPrefix(path.Ext(requestPath), ".")

	for _, rule := range p.rules {
		if rule.Matches(ext) {
			return rule
		}
	}
	return domain.CacheRule{Class: domain.CacheClassDefault, CacheControl: CacheControlDefault}
}

// Headers implements Policy.
func (p *CachePolicy) Headers(requestPath string) http.Header {
	rule := p.Classify(requestPath)
	h := make(http.Header, 2)
	h.Set("Cache-Control", rule.CacheControl)
	h.Set("Vary", "Accept-Encoding")
	return h
}

// CacheControl sets the policy headers on every response before next runs.
func CacheControl(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for key, values := range policy.Headers(r.URL.Path) {
				for _, v := range values {
					w.Header().Set(key, v)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
