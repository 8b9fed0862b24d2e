// Package web provides access to the embedded dashboard assets
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed all:assets
var embeddedFiles embed.FS

// GetFileSystem returns an http.FileSystem that serves the embedded dashboard
func GetFileSystem() http.FileSystem {
	dashboard, err := fs.Sub(embeddedFiles, "assets")
	if err != nil {
		panic(err)
	}
	return http.FS(dashboard)
}
