package webserv

import (
	"bytes"
	"strconv"
	"strings"
)

// maxURILength is the request-target length limit of spec.md §4.2 step 3.
const maxURILength = 8192

var recognisedRequestMethods = map[string]bool{
	"GET": true, "POST": true, "DELETE": true, "PUT": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// ParseOutcome tags the result of ParseRequest.
type ParseOutcome uint8

const (
	// NeedMore means the header terminator has not yet arrived; the
	// caller should read more bytes and retry.
	NeedMore ParseOutcome = iota
	// Ok means req is a complete, valid Request.
	Ok
	// Err means parsing failed; the error is a *ParseError.
	Err
)

// Request is a fully parsed HTTP/1.x request.
type Request struct {
	Method      string
	URIPath     string
	Query       string
	Fragment    string
	Version     string
	Headers     *Headers
	Cookies     map[string]string
	Body        []byte
	ContentLen  int64
	ContentType string
	Host        string
	Port        int
}

var headerTerminator = []byte("\r\n\r\n")

// ParseRequest attempts to parse one complete request from the front of
// buf. It is incremental: the caller accumulates bytes across reads and
// re-invokes ParseRequest until it returns Ok or Err.
func ParseRequest(buf []byte) (*Request, ParseOutcome, error) {
	headerEnd := bytes.Index(buf, headerTerminator)
	if headerEnd < 0 {
		return nil, NeedMore, nil
	}

	head := buf[:headerEnd]
	lines := strings.Split(string(head), "\r\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, Err, newParseError(400, "Bad Request")
	}

	req := &Request{Headers: newHeaders(), Port: 80}

	// Stage 1: request line.
	parts := strings.Fields(lines[0])
	if len(parts) != 3 {
		return nil, Err, newParseError(400, "Bad Request")
	}

	method := strings.ToUpper(parts[0])
	target := parts[1]
	version := parts[2]

	if !recognisedRequestMethods[method] {
		return nil, Err, newParseError(501, "Not Implemented")
	}
	req.Method = method

	// Stage 2: version.
	if version != "HTTP/1.0" && version != "HTTP/1.1" {
		return nil, Err, newParseError(505, "HTTP Version Not Supported")
	}
	req.Version = version

	// Stage 3: URI length.
	if len(target) > maxURILength {
		return nil, Err, newParseError(414, "URI Too Long")
	}

	// Stage 4: URI decomposition.
	uriPath := target
	fragment := ""
	if i := strings.IndexByte(uriPath, '#'); i >= 0 {
		fragment = uriPath[i+1:]
		uriPath = uriPath[:i]
	}
	query := ""
	if i := strings.IndexByte(uriPath, '?'); i >= 0 {
		query = uriPath[i+1:]
		uriPath = uriPath[:i]
	}
	req.URIPath = NormalizePath(uriPath)
	req.Query = query
	req.Fragment = fragment

	// Stage 5: headers.
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		i := strings.IndexByte(line, ':')
		if i < 0 {
			return nil, Err, newParseError(400, "Bad Request")
		}
		name := strings.ToLower(strings.TrimSpace(line[:i]))
		value := strings.TrimSpace(line[i+1:])
		req.Headers.Add(name, value)
	}

	// Stage 6: Host requirement.
	host := req.Headers.Get("host")
	if version == "HTTP/1.1" && host == "" {
		return nil, Err, newParseError(400, "Bad Request")
	}
	if host != "" {
		h, port := host, 80
		if i := strings.LastIndexByte(host, ':'); i >= 0 {
			h = host[:i]
			if p, err := strconv.Atoi(host[i+1:]); err == nil {
				port = p
			}
		}
		req.Host = h
		req.Port = port
	}

	// Stage 7: Content-Length.
	var contentLen int64
	hasContentLen := req.Headers.Has("content-length")
	if hasContentLen {
		clStr := req.Headers.Get("content-length")
		for _, c := range clStr {
			if c < '0' || c > '9' {
				return nil, Err, newParseError(400, "Bad Request")
			}
		}
		n, err := strconv.ParseInt(clStr, 10, 64)
		if err != nil || n < 0 {
			return nil, Err, newParseError(400, "Bad Request")
		}
		contentLen = n
	}
	req.ContentLen = contentLen
	req.ContentType = req.Headers.Get("content-type")

	// Stage 8: body.
	bodyStart := headerEnd + len(headerTerminator)
	available := buf[bodyStart:]

	if hasContentLen {
		if int64(len(available)) < contentLen {
			return nil, NeedMore, nil
		}
		if int64(len(available)) > contentLen {
			return nil, Err, newParseError(400, "Bad Request")
		}
		req.Body = available
	} else {
		if len(available) > 0 {
			switch method {
			case "POST", "PUT", "PATCH":
				return nil, Err, newParseError(411, "Length Required")
			default:
				return nil, Err, newParseError(400, "Bad Request")
			}
		}
		req.Body = nil
	}

	// Stage 9: cookies.
	req.Cookies = parseCookies(req.Headers.Get("cookie"))

	return req, Ok, nil
}
