package webserv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack"
)

func TestStatsRollupRecordAndFlush(t *testing.T) {
	dir := t.TempDir()
	srv := &ServerBlock{Root: dir, ServerNames: []string{"example.com"}}
	cfg := &HTTPConfig{Servers: []*ServerBlock{srv}}

	r := newStatsRollup(cfg)
	r.record(srv, 200)
	r.record(srv, 404)
	r.record(srv, 500)
	r.recordUnrouted(501)

	logger := newLogger()
	logger.Enabled = false
	r.flush(logger)

	data, err := os.ReadFile(filepath.Join(dir, "webservd.stats"))
	require.NoError(t, err)

	var entries []serverStats
	require.NoError(t, msgpack.Unmarshal(data, &entries))
	require.Len(t, entries, 2)

	var named, unrouted *serverStats
	for i := range entries {
		if entries[i].Label == "example.com" {
			named = &entries[i]
		} else {
			unrouted = &entries[i]
		}
	}

	require.NotNil(t, named)
	require.NotNil(t, unrouted)
	assert.EqualValues(t, 3, named.Requests)
	assert.EqualValues(t, 1, named.Errors4xx)
	assert.EqualValues(t, 1, named.Errors5xx)
	assert.EqualValues(t, 1, unrouted.Requests)
	assert.EqualValues(t, 1, unrouted.Errors5xx)
}
