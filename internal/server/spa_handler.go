package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var apiPrefixes = []string{"/api/", "/stocksense/", "/analyze", "/health", "/metrics"}

func isAPIPath(path string) bool {
	for _, prefix := range apiPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// SPAMiddleware serves the built web client from staticDir and falls back to
// index.html for client-side routes. API paths go to next. An empty
// staticDir returns next unchanged.
func SPAMiddleware(next http.Handler, staticDir string) http.Handler {
	if staticDir == "" {
		return next
	}
	index := filepath.Join(staticDir, "index.html")
	files := http.FileServer(http.Dir(staticDir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAPIPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		if r.URL.Path == "/" {
			http.ServeFile(w, r, index)
			return
		}

		path := filepath.Join(staticDir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			http.ServeFile(w, r, index)
			return
		}
		files.ServeHTTP(w, r)
	})
}
