package webserv

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/aofei/mimesniffer"
)

// StaticFileHandler serves a file resolved by the router. root is the
// matched location's root, passed so implementations can reject resolved
// paths that, after symlink resolution, escape it.
type StaticFileHandler interface {
	ServeFile(resolvedPath, root, method string, req *Request) (*Response, error)
}

// DirectoryListingHandler renders an HTML page listing resolvedPath's
// immediate children.
type DirectoryListingHandler interface {
	ServeListing(resolvedPath, uriPrefix string) (*Response, error)
}

// CGIHandler runs interpreter against scriptPath and returns its response.
type CGIHandler interface {
	ServeCGI(interpreter, scriptPath string, req *Request) (*Response, error)
}

// UploadHandler writes req's body under uploadDir.
type UploadHandler interface {
	ServeUpload(uploadDir string, req *Request) (*Response, error)
}

// isExistingDirectoryOS is the default filesystem-backed implementation of
// IsExistingDirectory.
func isExistingDirectoryOS(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// defaultStaticFileHandler is the default StaticFileHandler, backed by the
// asset cache for content reuse across requests.
type defaultStaticFileHandler struct {
	cache *assetCache
}

// newDefaultStaticFileHandler returns a pointer of a new instance of the
// `defaultStaticFileHandler`.
func newDefaultStaticFileHandler(cache *assetCache) *defaultStaticFileHandler {
	return &defaultStaticFileHandler{cache: cache}
}

// ServeFile implements the `StaticFileHandler`.
func (h *defaultStaticFileHandler) ServeFile(resolvedPath, root, method string, req *Request) (*Response, error) {
	if root != "" && !withinRoot(root, resolvedPath) {
		return ErrorResponse(404), nil
	}

	data, modTime, err := h.cache.Load(resolvedPath)
	if os.IsNotExist(err) {
		return ErrorResponse(404), nil
	}
	if err != nil {
		return nil, err
	}

	r := NewResponse(200, data)
	r.Headers.Set("content-type", contentTypeFor(resolvedPath, data))
	r.Headers.Set("etag", ETag(data))
	r.Headers.Set("last-modified", modTime.UTC().Format(http.TimeFormat))

	if method == "HEAD" {
		r.Body = nil
	}

	return r, nil
}

// withinRoot reports whether resolved, after symlink resolution, is
// contained within root.
func withinRoot(root, resolved string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absResolved, err := filepath.Abs(resolved)
	if err != nil {
		return false
	}
	real, err := filepath.EvalSymlinks(absResolved)
	if err == nil {
		absResolved = real
	}
	rel, err := filepath.Rel(absRoot, absResolved)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

// contentTypeFor determines the Content-Type for resolvedPath, preferring
// its file extension and falling back to content sniffing for files whose
// extension is unrecognised.
func contentTypeFor(resolvedPath string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(resolvedPath)); ct != "" {
		return ct
	}
	if ct := mimesniffer.Sniff(data); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
