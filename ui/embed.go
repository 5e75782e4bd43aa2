//go:build ui_embed

// Package ui serves the dashboard that drives the run API.
package ui

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// Build the dashboard into ui/dist, then: go build -tags ui_embed .
//
//go:embed all:dist
var distFS embed.FS

// Handler serves the embedded dashboard. Unknown paths without an
// extension get index.html so client-side routes survive a reload.
func Handler() (http.Handler, error) {
	fsys, err := fs.Sub(distFS, "dist")
	if err != nil {
		return nil, err
	}
	files := http.FileServer(http.FS(fsys))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name != "" && isFile(fsys, name) {
			files.ServeHTTP(w, r)
			return
		}
		if !strings.Contains(path.Base(name), ".") {
			r.URL.Path = "/"
		}
		files.ServeHTTP(w, r)
	}), nil
}

func isFile(fsys fs.FS, name string) bool {
	info, err := fs.Stat(fsys, name)
	return err == nil && !info.IsDir()
}
