package livereload

import (
	"bytes"
	"net/http"
	"path"
	"strconv"
	"strings"
)

// Snippet is the tag inserted into served HTML pages.
const Snippet = `<script src="` + ScriptPath + `"></script>`

var closingBody = []byte("</body>")

// InjectScript inserts the client tag before the last </body> of an HTML
// document, appending it when the tag is absent.
func InjectScript(doc []byte) []byte {
	lower := bytes.ToLower(doc)
	i := bytes.LastIndex(lower, closingBody)
	if i < 0 {
		return append(append([]byte{}, doc...), Snippet...)
	}
	out := make([]byte, 0, len(doc)+len(Snippet))
	out = append(out, doc[:i]...)
	out = append(out, Snippet...)
	out = append(out, doc[i:]...)
	return out
}

// isMarkupPath reports whether the request likely resolves to an HTML page.
func isMarkupPath(p string) bool {
	if strings.HasSuffix(p, "/") {
		return true
	}
	switch path.Ext(p) {
	case ".html", ".htm":
		return true
	}
	return false
}

// bufferedWriter holds an HTML response so it can be rewritten.
type bufferedWriter struct {
	header http.Header
	status int
	buf    bytes.Buffer
}

func (b *bufferedWriter) Header() http.Header { return b.header }

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.buf.Write(p)
}

func (b *bufferedWriter) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

// Inject rewrites HTML responses to load the live-reload client. Other
// responses pass through untouched.
func Inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !isMarkupPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		// Force a full body so there is something to rewrite.
		r = r.Clone(r.Context())
		r.Header.Del("If-Modified-Since")
		r.Header.Del("If-None-Match")
		r.Header.Del("Range")

		bw := &bufferedWriter{header: make(http.Header)}
		next.ServeHTTP(bw, r)
		if bw.status == 0 {
			bw.status = http.StatusOK
		}

		body := bw.buf.Bytes()
		if bw.status == http.StatusOK && strings.HasPrefix(bw.header.Get("Content-Type"), "text/html") {
			body = InjectScript(body)
		}

		for key, values := range bw.header {
			w.Header()[key] = values
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(bw.status)
		w.Write(body)
	})
}
