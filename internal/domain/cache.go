package domain

// CacheClass groups request paths that share a caching directive.
type CacheClass string

const (
	CacheClassStatic  CacheClass = "static-asset"
	CacheClassMarkup  CacheClass = "markup"
	CacheClassDefault CacheClass = "default"
)

// CacheRule maps a class of file extensions to a Cache-Control directive.
// An empty Extensions list matches everything, including paths without an
// extension.
type CacheRule struct {
	Class        CacheClass
	CacheControl string
	Extensions   []string
}

// Matches reports whether ext (without the leading dot) belongs to the rule.
func (r CacheRule) Matches(ext string) bool {
	if len(r.Extensions) == 0 {
		return true
	}
	for _, e := range r.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
