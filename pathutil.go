package webserv

import "strings"

// NormalizePath strips any query string and fragment, ensures a leading
// slash and collapses runs of consecutive slashes to a single slash. It
// does not resolve `.` or `..` segments; traversal protection is the
// responsibility of the static-file collaborator.
func NormalizePath(uri string) string {
	if i := strings.IndexByte(uri, '#'); i >= 0 {
		uri = uri[:i]
	}
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		uri = uri[:i]
	}

	if uri == "" {
		return "/"
	}

	out := make([]byte, 0, len(uri)+1)
	if uri[0] != '/' {
		out = append(out, '/')
	}

	prevSlash := false
	for i := 0; i < len(uri); i++ {
		c := uri[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		out = append(out, c)
	}

	return string(out)
}

// hasPathBoundary reports whether uri begins with prefix and the character
// immediately following prefix in uri is a valid location boundary: the end
// of the string, `/`, `?` or `#`. The prefix "/" always matches.
func hasPathBoundary(uri, prefix string) bool {
	if prefix == "/" {
		return strings.HasPrefix(uri, "/")
	}

	if !strings.HasPrefix(uri, prefix) {
		return false
	}

	if len(uri) == len(prefix) {
		return true
	}

	switch uri[len(prefix)] {
	case '/', '?', '#':
		return true
	default:
		return false
	}
}
