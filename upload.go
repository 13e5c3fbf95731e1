package webserv

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// defaultUploadHandler is the default UploadHandler: it writes the request
// body to a new file under uploadDir, named from the request path's final
// segment plus a timestamp to avoid collisions.
type defaultUploadHandler struct{}

// newDefaultUploadHandler returns a pointer of a new instance of the
// `defaultUploadHandler`.
func newDefaultUploadHandler() *defaultUploadHandler {
	return &defaultUploadHandler{}
}

// ServeUpload implements the `UploadHandler`.
func (h *defaultUploadHandler) ServeUpload(uploadDir string, req *Request) (*Response, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("webserv: cannot create upload dir %s: %w", uploadDir, err)
	}

	name := filepath.Base(req.URIPath)
	if name == "" || name == "/" || name == "." {
		name = "upload"
	}

	dest := filepath.Join(uploadDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), name))

	if err := os.WriteFile(dest, req.Body, 0o644); err != nil {
		return nil, fmt.Errorf("webserv: failed to write upload %s: %w", dest, err)
	}

	r := NewResponse(201, []byte(fmt.Sprintf("Created: %s\n", filepath.Base(dest))))
	r.Headers.Set("content-type", "text/plain; charset=utf-8")

	return r, nil
}
