package httpapi

import (
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// staticHandler раздаёт UI. Отсутствующий файл отдаётся нашим 404,
// чтобы ответ прошёл через те же заголовки, что и API.
func staticHandler(fsys fs.FS) http.Handler {
	files := http.FileServerFS(fsys)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" {
			name = "."
		}
		if _, err := fs.Stat(fsys, name); err != nil {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprintf(w, "Cannot %s %s", r.Method, r.URL.Path)
			return
		}
		files.ServeHTTP(w, r)
	})
}
