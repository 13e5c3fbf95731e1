package webserv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocation(path string) *LocationBlock {
	return &LocationBlock{Path: path}
}

func TestFinalizeInheritsRootAndBodySize(t *testing.T) {
	cfg := &HTTPConfig{
		Servers: []*ServerBlock{
			{
				Root: "/var/www",
				Locations: []*LocationBlock{
					newTestLocation("/"),
				},
			},
		},
	}

	require.NoError(t, cfg.Finalize())

	loc := cfg.Servers[0].Locations[0]
	assert.Equal(t, "/var/www", loc.Root)
	assert.Equal(t, defaultClientMaxBodySize, loc.ClientMaxBodySize)
	assert.True(t, loc.MethodAllowed("GET"))
	assert.False(t, loc.MethodAllowed("POST"))
}

func TestFinalizeLocationOverridesServerBodySize(t *testing.T) {
	cfg := &HTTPConfig{
		Servers: []*ServerBlock{
			{
				Root:              "/var/www",
				ClientMaxBodySize: 1000,
				Locations: []*LocationBlock{
					{Path: "/upload", ClientMaxBodySize: 50},
				},
			},
		},
	}

	require.NoError(t, cfg.Finalize())
	assert.EqualValues(t, 50, cfg.Servers[0].Locations[0].ClientMaxBodySize)
}

func TestFinalizeRejectsMissingRoot(t *testing.T) {
	cfg := &HTTPConfig{
		Servers: []*ServerBlock{
			{Locations: []*LocationBlock{newTestLocation("/")}},
		},
	}
	assert.Error(t, cfg.Finalize())
}

func TestDefaultServerForPort(t *testing.T) {
	a := &ServerBlock{Listen: []Listen{{Port: 8080}}}
	b := &ServerBlock{Listen: []Listen{{Port: 8080}}}
	cfg := &HTTPConfig{Servers: []*ServerBlock{a, b}}

	assert.Same(t, a, cfg.DefaultServerForPort(8080))
	assert.Nil(t, cfg.DefaultServerForPort(9090))
}
