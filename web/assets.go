// Package web provides the embedded browser client for the local board.
//
// The dist/ directory is embedded at build time. During development,
// if dist/ exists on the filesystem, it is served instead so edits to the
// page show up without a rebuild.
package web

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed dist/*
var assets embed.FS

// IndexFile is the page template served at /.
const IndexFile = "index.html"

// Assets returns the browser client files. When devPath names an existing
// directory it is served live; otherwise the embedded copy is used.
// An empty devPath means "./web/dist".
func Assets(devPath string) fs.FS {
	if devPath == "" {
		devPath = "./web/dist"
	}

	if stat, err := os.Stat(devPath); err == nil && stat.IsDir() {
		return os.DirFS(devPath)
	}
	return Embedded()
}

// Embedded returns the client files compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(assets, "dist")
	if err != nil {
		// Only possible if the embed directive above is broken.
		panic("failed to access embedded web assets: " + err.Error())
	}
	return sub
}

// AssetsWithBase looks for a development copy under baseDir/web/dist.
func AssetsWithBase(baseDir string) fs.FS {
	return Assets(filepath.Join(baseDir, "web", "dist"))
}
