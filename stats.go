package webserv

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack"
)

// serverStats is the per-ServerBlock request/error rollup supplemented from
// original_source's shutdown summary logging (not present in spec.md's
// invariants, added as an ambient bookkeeping feature).
type serverStats struct {
	Label     string `msgpack:"label"`
	Requests  uint64 `msgpack:"requests"`
	Errors4xx uint64 `msgpack:"errors_4xx"`
	Errors5xx uint64 `msgpack:"errors_5xx"`
}

// statsRollup accumulates serverStats across the process lifetime and
// serialises them with msgpack on orderly shutdown.
type statsRollup struct {
	mu       sync.Mutex
	path     string
	byServer map[*ServerBlock]*serverStats
	unrouted *serverStats
}

// newStatsRollup returns a pointer of a new instance of the `statsRollup`
// for cfg, writing its flushed rollup next to the first server's root (or
// the current directory if no server has a usable root).
func newStatsRollup(cfg *HTTPConfig) *statsRollup {
	dir := "."
	if len(cfg.Servers) > 0 && cfg.Servers[0].Root != "" {
		dir = cfg.Servers[0].Root
	}

	r := &statsRollup{
		path:     filepath.Join(dir, "webservd.stats"),
		byServer: map[*ServerBlock]*serverStats{},
		unrouted: &serverStats{Label: "(unrouted)"},
	}

	for i, s := range cfg.Servers {
		label := fmt.Sprintf("server[%d]", i)
		if len(s.ServerNames) > 0 {
			label = s.ServerNames[0]
		}
		r.byServer[s] = &serverStats{Label: label}
	}

	return r
}

// record accounts for one completed request against server.
func (r *statsRollup) record(server *ServerBlock, status int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.unrouted
	if server != nil {
		if s, ok := r.byServer[server]; ok {
			entry = s
		}
	}

	entry.Requests++
	switch {
	case status >= 500:
		entry.Errors5xx++
	case status >= 400:
		entry.Errors4xx++
	}
}

// recordUnrouted accounts for a request that failed before a server could
// be selected (a request-parse failure).
func (r *statsRollup) recordUnrouted(status int) {
	r.record(nil, status)
}

// flush serialises the rollup to disk with msgpack, logging but not failing
// on write errors since shutdown must still proceed.
func (r *statsRollup) flush(logger *Logger) {
	r.mu.Lock()
	entries := make([]*serverStats, 0, len(r.byServer)+1)
	for _, s := range r.byServer {
		entries = append(entries, s)
	}
	entries = append(entries, r.unrouted)
	r.mu.Unlock()

	data, err := msgpack.Marshal(entries)
	if err != nil {
		logger.Errorf("webserv: failed to marshal shutdown stats: %v", err)
		return
	}

	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		logger.Errorf("webserv: failed to write shutdown stats to %s: %v", r.path, err)
		return
	}

	logger.Infof("webserv: wrote shutdown stats to %s", r.path)
}
