package webserv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestConfig(t *testing.T, src string) *HTTPConfig {
	t.Helper()
	cfg, err := ParseConfig(strings.NewReader(src))
	require.NoError(t, err)
	return cfg
}

func parseReq(t *testing.T, raw string) *Request {
	t.Helper()
	req, outcome, err := ParseRequest([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, Ok, outcome)
	return req
}

func TestRouteLongestPrefix(t *testing.T) {
	cfg := buildTestConfig(t, `
http {
    server {
        listen 0.0.0.0:8080;
        server_name example.com;
        root /var/www;
        location / { methods GET; }
        location /api { methods GET; }
        location /api/users { methods GET; }
    }
}`)

	req := parseReq(t, "GET /api/users/123 HTTP/1.1\r\nHost: example.com\r\n\r\n")
	d := Route(cfg, req, 8080)

	assert.Equal(t, 200, d.Status)
	assert.Equal(t, "/api/users", d.MatchedPath)
}

func TestRouteMethodNotAllowed(t *testing.T) {
	cfg := buildTestConfig(t, `
http {
    server {
        listen 0.0.0.0:8080;
        server_name example.com;
        root /var/www;
        location / { methods GET; }
        location /images { methods GET; }
    }
}`)

	req := parseReq(t, "DELETE /images/photo.jpg HTTP/1.1\r\nHost: example.com\r\n\r\n")
	d := Route(cfg, req, 8080)
	assert.Equal(t, 405, d.Status)
}

func TestRouteBodyLimit413(t *testing.T) {
	cfg := buildTestConfig(t, `
http {
    server {
        listen 0.0.0.0:8080;
        server_name example.com;
        root /var/www;
        location /upload {
            methods POST;
            upload_dir /var/uploads;
            client_max_body_size 50M;
        }
    }
}`)

	req := parseReq(t, "POST /upload/f HTTP/1.1\r\nHost: example.com\r\nContent-Length: 62914560\r\n\r\n"+strings.Repeat("x", 62914560))
	d := Route(cfg, req, 8080)
	assert.Equal(t, 413, d.Status)
}

func TestRouteRedirect(t *testing.T) {
	cfg := buildTestConfig(t, `
http {
    server {
        listen 0.0.0.0:8080;
        server_name example.com;
        root /var/www;
        location /old { return 301 /new; }
    }
}`)

	req := parseReq(t, "GET /old HTTP/1.1\r\nHost: example.com\r\n\r\n")
	d := Route(cfg, req, 8080)

	assert.Equal(t, 301, d.Status)
	mode, ok := d.Mode.(ModeRedirect)
	require.True(t, ok)
	assert.Equal(t, "/new", mode.URL)
}

func TestRouteDefaultServerForUnknownHost(t *testing.T) {
	cfg := buildTestConfig(t, `
http {
    server {
        listen 0.0.0.0:8080;
        server_name example.com;
        root /var/www;
        location / { methods GET; }
    }
    server {
        listen 0.0.0.0:8080;
        server_name other.com;
        root /var/www2;
        location / { methods GET; }
    }
}`)

	req := parseReq(t, "GET / HTTP/1.1\r\nHost: unknown.com\r\n\r\n")
	d := Route(cfg, req, 8080)
	assert.Equal(t, "example.com", d.Server.ServerNames[0])
}

func TestRouteNoServerForPort500(t *testing.T) {
	cfg := buildTestConfig(t, `
http {
    server {
        listen 0.0.0.0:8080;
        root /var/www;
        location / { methods GET; }
    }
}`)

	req := parseReq(t, "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n")
	d := Route(cfg, req, 9090)
	assert.Equal(t, 500, d.Status)
}

func TestRouteNoLocationMatches404(t *testing.T) {
	cfg := buildTestConfig(t, `
http {
    server {
        listen 0.0.0.0:8080;
        root /var/www;
        location /api { methods GET; }
    }
}`)

	req := parseReq(t, "GET /imagesbackup/cat.jpg HTTP/1.1\r\nHost: x\r\n\r\n")
	d := Route(cfg, req, 8080)
	assert.Equal(t, 404, d.Status)
}

func TestResolvePathRootLocation(t *testing.T) {
	loc := &LocationBlock{Path: "/", Root: "/var/www"}
	resolved, matched, remaining := resolvePath(loc, "/a/b")
	assert.Equal(t, "/var/www/a/b", resolved)
	assert.Equal(t, "/", matched)
	assert.Equal(t, "a/b", remaining)
}

func TestResolvePathNonRootLocation(t *testing.T) {
	loc := &LocationBlock{Path: "/images", Root: "/var/www/img"}
	resolved, _, _ := resolvePath(loc, "/images/cat.jpg")
	assert.Equal(t, "/var/www/img/cat.jpg", resolved)
}

func TestSelectLocationBoundary(t *testing.T) {
	server := &ServerBlock{
		Locations: []*LocationBlock{
			{Path: "/images"},
		},
	}
	assert.NotNil(t, selectLocation(server, "/images"))
	assert.NotNil(t, selectLocation(server, "/images/x"))
	assert.Nil(t, selectLocation(server, "/imagesbackup"))
}

func BenchmarkRoute(b *testing.B) {
	cfg, _ := ParseConfig(strings.NewReader(`
http {
    server {
        listen 0.0.0.0:8080;
        server_name example.com;
        root /var/www;
        location / { methods GET; }
        location /api { methods GET; }
        location /api/users { methods GET; }
    }
}`))
	req, _, _ := ParseRequest([]byte("GET /api/users/123 HTTP/1.1\r\nHost: example.com\r\n\r\n"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Route(cfg, req, 8080)
	}
}
