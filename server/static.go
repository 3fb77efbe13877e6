package server

import (
	"bytes"
	"io/fs"
	"net/http"
	"time"
)

// staticHandler serves files from fsys by the {file...} path value.
// Unlike http.FileServer it serves index.html in place instead of
// redirecting to the directory.
func staticHandler(fsys fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("file")
		if name == "" {
			name = "index.html"
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
	})
}
