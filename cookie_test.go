package webserv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCookies(t *testing.T) {
	got := parseCookies("sid=abc123; theme=dark")
	assert.Equal(t, "abc123", got["sid"])
	assert.Equal(t, "dark", got["theme"])
}

func TestParseCookiesEmpty(t *testing.T) {
	assert.Empty(t, parseCookies(""))
}

func TestCookieString(t *testing.T) {
	c := &Cookie{Name: "sid", Value: "abc", Path: "/", Secure: true, HTTPOnly: true}
	s := c.String()
	assert.Contains(t, s, "sid=abc")
	assert.Contains(t, s, "Path=/")
	assert.Contains(t, s, "Secure")
	assert.Contains(t, s, "HttpOnly")
}
