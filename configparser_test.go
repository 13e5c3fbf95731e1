package webserv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
http {
    client_max_body_size 2M;

    server {
        listen 127.0.0.1:8080;
        server_name example.com;
        root /var/www;

        location / {
            methods GET;
        }

        location /api {
            methods GET POST;
        }

        location /api/users {
            methods GET;
        }

        location /upload {
            methods POST;
            upload_dir /var/uploads;
            client_max_body_size 50M;
        }

        location /old {
            return 301 /new;
        }

        location /cgi-bin {
            cgi_pass .php:/usr/bin/php-cgi;
            methods GET POST;
        }
    }
}
`

func mustParse(t *testing.T, src string) *HTTPConfig {
	t.Helper()
	cfg, err := ParseConfig(strings.NewReader(src))
	require.NoError(t, err)
	return cfg
}

func TestParseConfigBasic(t *testing.T) {
	cfg := mustParse(t, sampleConfig)

	require.Len(t, cfg.Servers, 1)
	srv := cfg.Servers[0]
	assert.Equal(t, "/var/www", srv.Root)
	assert.EqualValues(t, 2*1024*1024, srv.ClientMaxBodySize)
	require.Len(t, srv.Locations, 6)

	upload := srv.Locations[3]
	assert.Equal(t, "/upload", upload.Path)
	assert.EqualValues(t, 50*1024*1024, upload.ClientMaxBodySize)
	assert.Equal(t, "/var/uploads", upload.UploadDir)

	redirect := srv.Locations[4]
	assert.True(t, redirect.HasRedirect())
	assert.Equal(t, 301, redirect.RedirectStatus)
	assert.Equal(t, "/new", redirect.RedirectURL)

	cgi := srv.Locations[5]
	assert.Equal(t, "/usr/bin/php-cgi", cgi.CGIPass[".php"])
}

func TestParseConfigRejectsDuplicateListen(t *testing.T) {
	src := `
http {
    server {
        listen 0.0.0.0:8080;
        listen 0.0.0.0:8080;
        root /var/www;
        location / { methods GET; }
    }
}`
	_, err := ParseConfig(strings.NewReader(src))
	assert.Error(t, err)
}

func TestParseConfigRejectsDuplicateLocationPath(t *testing.T) {
	src := `
http {
    server {
        listen 0.0.0.0:8080;
        root /var/www;
        location / { methods GET; }
        location / { methods POST; }
    }
}`
	_, err := ParseConfig(strings.NewReader(src))
	assert.Error(t, err)
}

func TestParseConfigRejectsBadListenPort(t *testing.T) {
	src := `
http {
    server {
        listen 0.0.0.0:70000;
        root /var/www;
        location / { methods GET; }
    }
}`
	_, err := ParseConfig(strings.NewReader(src))
	assert.Error(t, err)
}

func TestParseConfigRejectsNoServers(t *testing.T) {
	_, err := ParseConfig(strings.NewReader(`http { }`))
	assert.Error(t, err)
}

func TestParseConfigCommentsIgnored(t *testing.T) {
	src := `
# top level comment
http {
    server { # inline comment
        listen 0.0.0.0:8080; # another
        root /var/www;
        location / { methods GET; }
    }
}`
	cfg := mustParse(t, src)
	assert.Len(t, cfg.Servers, 1)
}

func TestParseConfigTwiceStructurallyEqual(t *testing.T) {
	cfg1 := mustParse(t, sampleConfig)
	cfg2 := mustParse(t, sampleConfig)

	assert.Equal(t, len(cfg1.Servers), len(cfg2.Servers))
	assert.Equal(t, cfg1.Servers[0].Root, cfg2.Servers[0].Root)
	assert.Equal(t, len(cfg1.Servers[0].Locations), len(cfg2.Servers[0].Locations))
}
