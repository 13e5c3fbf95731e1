package webserv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadersCaseInsensitive(t *testing.T) {
	h := newHeaders()
	h.Add("Content-Type", "text/html")
	assert.Equal(t, "text/html", h.Get("content-type"))
	assert.Equal(t, "text/html", h.Get("CONTENT-TYPE"))
	assert.True(t, h.Has("Content-Type"))
}

func TestHeadersAddJoinsWithComma(t *testing.T) {
	h := newHeaders()
	h.Add("X-Forwarded-For", "1.1.1.1")
	h.Add("X-Forwarded-For", "2.2.2.2")
	assert.Equal(t, "1.1.1.1, 2.2.2.2", h.Get("x-forwarded-for"))
}

func TestHeadersSetReplaces(t *testing.T) {
	h := newHeaders()
	h.Add("X-A", "1")
	h.Set("X-A", "2")
	assert.Equal(t, "2", h.Get("x-a"))
}

func TestHeadersDelete(t *testing.T) {
	h := newHeaders()
	h.Add("X-A", "1")
	h.Delete("x-a")
	assert.False(t, h.Has("X-A"))
}
