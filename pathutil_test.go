package webserv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/a/b":        "/a/b",
		"a/b":         "/a/b",
		"/a//b///c":   "/a/b/c",
		"/a?x=1":      "/a",
		"/a#frag":     "/a",
		"/a?x=1#frag": "/a",
		"":            "/",
		"//":          "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePath(in), in)
	}
}

func TestNormalizePathIdempotent(t *testing.T) {
	inputs := []string{"/a//b", "a/b/c?x=1#y", "///"}
	for _, in := range inputs {
		once := NormalizePath(in)
		twice := NormalizePath(once)
		assert.Equal(t, once, twice, in)
	}
}

func TestHasPathBoundary(t *testing.T) {
	assert.True(t, hasPathBoundary("/images", "/images"))
	assert.True(t, hasPathBoundary("/images/cat.jpg", "/images"))
	assert.False(t, hasPathBoundary("/imagesbackup/cat.jpg", "/images"))
	assert.True(t, hasPathBoundary("/anything", "/"))
	assert.True(t, hasPathBoundary("/images?x=1", "/images"))
}
