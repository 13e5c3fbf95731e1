package webserv

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// osDefaultInheritEnv names the environment variables inherited from the
// multiplexer's own process by OS, matching net/http/cgi's table.
var osDefaultInheritEnv = map[string][]string{
	"darwin":  {"DYLD_LIBRARY_PATH"},
	"linux":   {"LD_LIBRARY_PATH"},
	"freebsd": {"LD_LIBRARY_PATH"},
	"openbsd": {"LD_LIBRARY_PATH"},
	"windows": {"SystemRoot", "COMSPEC", "PATHEXT", "WINDIR"},
}

// defaultCGIHandler is the default CGIHandler: it execs interpreter with
// scriptPath as its sole argument, builds a standard CGI/1.1 environment
// from req, and parses the child's stdout as a headers-then-body response.
type defaultCGIHandler struct {
	logger *Logger
}

// newDefaultCGIHandler returns a pointer of a new instance of the
// `defaultCGIHandler`.
func newDefaultCGIHandler(logger *Logger) *defaultCGIHandler {
	return &defaultCGIHandler{logger: logger}
}

// ServeCGI implements the `CGIHandler`.
func (h *defaultCGIHandler) ServeCGI(interpreter, scriptPath string, req *Request) (*Response, error) {
	env := h.buildEnv(scriptPath, req)

	cmd := exec.Command(interpreter, scriptPath)
	cmd.Dir = filepath.Dir(scriptPath)
	cmd.Env = env
	if len(req.Body) > 0 {
		cmd.Stdin = bytes.NewReader(req.Body)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		h.logger.Errorf("webserv: cgi %s failed: %v: %s", scriptPath, err, stderr.String())
		return ErrorResponse(500), nil
	}

	return parseCGIOutput(out)
}

func (h *defaultCGIHandler) buildEnv(scriptPath string, req *Request) []string {
	env := []string{
		"SERVER_SOFTWARE=webserv",
		"SERVER_PROTOCOL=" + req.Version,
		"GATEWAY_INTERFACE=CGI/1.1",
		"REQUEST_METHOD=" + req.Method,
		"QUERY_STRING=" + req.Query,
		"SCRIPT_FILENAME=" + scriptPath,
		"SCRIPT_NAME=" + req.URIPath,
		"SERVER_NAME=" + req.Host,
		"SERVER_PORT=" + strconv.Itoa(req.Port),
	}

	if req.ContentLen > 0 {
		env = append(env, "CONTENT_LENGTH="+strconv.FormatInt(req.ContentLen, 10))
	}
	if req.ContentType != "" {
		env = append(env, "CONTENT_TYPE="+req.ContentType)
	}

	for _, name := range req.Headers.Names() {
		if name == "content-type" || name == "content-length" {
			continue
		}
		key := "HTTP_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		env = append(env, key+"="+req.Headers.Get(name))
	}

	for _, e := range osDefaultInheritEnv[runtime.GOOS] {
		if v := os.Getenv(e); v != "" {
			env = append(env, e+"="+v)
		}
	}

	return env
}

// parseCGIOutput splits a CGI child's stdout into headers and body: header
// lines up to the first blank line, per RFC 3875 §6.3.
func parseCGIOutput(out []byte) (*Response, error) {
	headerEnd := bytes.Index(out, []byte("\n\n"))
	sep := 2
	if headerEnd < 0 {
		headerEnd = bytes.Index(out, []byte("\r\n\r\n"))
		sep = 4
	}
	if headerEnd < 0 {
		return NewResponse(200, out), nil
	}

	head := string(out[:headerEnd])
	body := out[headerEnd+sep:]

	headers := newHeaders()
	status := 200

	for _, line := range strings.Split(head, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		i := strings.IndexByte(line, ':')
		if i < 0 {
			return nil, fmt.Errorf("webserv: malformed cgi header line %q", line)
		}
		name := strings.ToLower(strings.TrimSpace(line[:i]))
		value := strings.TrimSpace(line[i+1:])

		if name == "status" {
			if fields := strings.Fields(value); len(fields) > 0 {
				if n, convErr := strconv.Atoi(fields[0]); convErr == nil {
					status = n
				}
			}
			continue
		}

		headers.Add(name, value)
	}

	resp := NewResponse(status, body)
	resp.Headers = headers

	return resp, nil
}
