package smoke

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/mtlprog/slidekit/internal/domain"
)

// referenceAttrs maps elements to the attribute holding a local asset path.
var referenceAttrs = map[string]string{
	"link":   "href",
	"script": "src",
	"img":    "src",
	"source": "src",
	"video":  "src",
	"audio":  "src",
}

// ReferencesError lists asset references of the entry page that do not
// resolve to a file under the project root.
type ReferencesError struct {
	Page    string
	Missing []string
}

func (e *ReferencesError) Error() string {
	return fmt.Sprintf("%s in %s: %s", domain.ErrMissingReferences, e.Page, strings.Join(e.Missing, ", "))
}

func (e *ReferencesError) Unwrap() error {
	return domain.ErrMissingReferences
}

// CheckReferences parses root/index.html and verifies that every local
// stylesheet, script and media reference exists. Remote URLs are ignored.
func CheckReferences(root string) error {
	const page = "index.html"

	f, err := os.Open(filepath.Join(root, page))
	if err != nil {
		return fmt.Errorf("open %s: %w", page, err)
	}
	defer f.Close()

	refs, err := extractReferences(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", page, err)
	}

	var missing []string
	seen := make(map[string]struct{})
	for _, ref := range refs {
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}

		_, err := os.Stat(filepath.Join(root, filepath.FromSlash(ref)))
		if err == nil {
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", ref, err)
		}
		missing = append(missing, ref)
	}

	if len(missing) > 0 {
		return &ReferencesError{Page: page, Missing: missing}
	}
	return nil
}

// extractReferences walks the token stream and returns cleaned local paths
// in document order.
func extractReferences(r io.Reader) ([]string, error) {
	var refs []string
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			return refs, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			attr, ok := referenceAttrs[tok.Data]
			if !ok {
				continue
			}
			for _, a := range tok.Attr {
				if a.Key != attr {
					continue
				}
				if ref, ok := localPath(a.Val); ok {
					refs = append(refs, ref)
				}
			}
		}
	}
}

// localPath cleans a reference and reports whether it points inside the project.
func localPath(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, "//") {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}
	p := path.Clean("/" + u.Path)
	return strings.TrimPrefix(p, "/"), p != "/"
}
