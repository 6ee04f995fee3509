// Package web содержит встроенный UI табло.
package web

import (
	"embed"
	"io/fs"
)

//go:embed index.html asset
var files embed.FS

// FS возвращает файловую систему UI с index.html в корне.
func FS() fs.FS {
	return files
}
