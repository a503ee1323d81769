// Package mimetype maps request paths to the Content-Type used when serving
// static files.
package mimetype

import "strings"

const Default = "application/octet-stream"

var byExtension = map[string]string{
	"html": "text/html",
	"css":  "text/css",
	"js":   "application/javascript",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
}

// ForPath resolves the content type from whatever follows the last '.' in
// path, compared case-insensitively. Unknown or missing extensions yield
// Default.
func ForPath(path string) string {
	if ct, ok := byExtension[Extension(path)]; ok {
		return ct
	}
	return Default
}

// Extension returns the lower-cased text after the last '.', or "" when
// path has none.
func Extension(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i == -1 {
		return ""
	}
	return strings.ToLower(path[i+1:])
}
