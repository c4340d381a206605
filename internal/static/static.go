package static

import _ "embed"

// LiveReloadJS is the browser client injected into HTML pages in dev mode.
//
//go:embed livereload.js
var LiveReloadJS string
