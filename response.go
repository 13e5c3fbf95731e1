package webserv

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cespare/xxhash"
)

// Response is a complete HTTP/1.x response awaiting byte assembly.
type Response struct {
	Status  int
	Headers *Headers
	Body    []byte
}

// StatusText returns the reason phrase for status, falling back to
// net/http's table and then a generic placeholder for codes it doesn't
// know (the taxonomy in spec.md §7 only needs a subset of these).
func StatusText(status int) string {
	if t := http.StatusText(status); t != "" {
		return t
	}
	return "Unknown Status"
}

// NewResponse builds a Response for status and body; its Content-Length is
// always derived from the body's length when Bytes assembles it.
func NewResponse(status int, body []byte) *Response {
	return &Response{Status: status, Headers: newHeaders(), Body: body}
}

// ETag computes a synthetic, strong (quoted, unprefixed) ETag for body using
// xxhash, used by the default static-file and directory-listing handlers.
func ETag(body []byte) string {
	return fmt.Sprintf(`"%x"`, xxhash.Sum64(body))
}

// Bytes assembles the status line, headers and body into the wire format
// `HTTP/1.1 <code> <reason>\r\n` ... `\r\n\r\n` + body.
func (r *Response) Bytes(version string) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s %d %s\r\n", version, r.Status, StatusText(r.Status))

	r.Headers.Set("content-length", strconv.Itoa(len(r.Body)))

	for _, name := range r.Headers.Names() {
		for _, v := range r.Headers.Values(name) {
			fmt.Fprintf(&buf, "%s: %s\r\n", canonicalHeaderName(name), v)
		}
	}

	buf.WriteString("\r\n")
	buf.Write(r.Body)

	return buf.Bytes()
}

// canonicalHeaderName title-cases a lowercase header name for the wire
// (e.g. "content-type" -> "Content-Type").
func canonicalHeaderName(name string) string {
	out := make([]byte, len(name))
	upperNext := true
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '-' {
			upperNext = true
			out[i] = c
			continue
		}
		if upperNext && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
		upperNext = false
	}
	return string(out)
}

// ErrorResponse builds the default error Response for status, used when the
// matched server has no configured error_page for it.
func ErrorResponse(status int) *Response {
	r := NewResponse(status, defaultErrorBody(status, StatusText(status)))
	r.Headers.Set("content-type", "text/html; charset=utf-8")
	return r
}
