package webserv

import (
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// clientTimeout is the idle-timeout duration of spec.md §4.4/§5.
const clientTimeout = 30 * time.Second

// pollTimeoutMillis is the readiness-primitive timeout of spec.md §5.
const pollTimeoutMillis = 100

// Multiplexer owns every listening endpoint and every connected client; it
// drives the single-threaded, cooperative, poll-based event loop of
// spec.md §4.4.
type Multiplexer struct {
	Config *HTTPConfig
	Logger *Logger

	StaticFiles       StaticFileHandler
	DirectoryListings DirectoryListingHandler
	CGI               CGIHandler
	Uploads           UploadHandler

	stats *statsRollup

	listeners     []*listener
	listenerPorts map[int]int // fd -> port

	poll    *pollSet
	clients map[int]*Client

	shuttingDown int32
}

// NewMultiplexer returns a pointer of a new instance of the `Multiplexer`
// wired with default collaborator implementations.
func NewMultiplexer(cfg *HTTPConfig, logger *Logger) *Multiplexer {
	cache := newAssetCache(logger)

	return &Multiplexer{
		Config:            cfg,
		Logger:            logger,
		StaticFiles:       newDefaultStaticFileHandler(cache),
		DirectoryListings: newDefaultDirectoryListingHandler(),
		CGI:               newDefaultCGIHandler(logger),
		Uploads:           newDefaultUploadHandler(),
		stats:             newStatsRollup(cfg),
		listenerPorts:     map[int]int{},
		poll:              newPollSet(),
		clients:           map[int]*Client{},
	}
}

// distinctListenAddrs collects every unique (interface, port) pair named by
// any ServerBlock's Listen list.
func distinctListenAddrs(cfg *HTTPConfig) []Listen {
	seen := map[string]bool{}
	var out []Listen
	for _, srv := range cfg.Servers {
		for _, l := range srv.Listen {
			key := l.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, l)
		}
	}
	return out
}

// Serve binds every distinct listen endpoint named in Config and runs the
// event loop until Close is called or an unrecoverable bind error occurs.
// Endpoints are bound concurrently via errgroup, which also propagates the
// first bind failure.
func (m *Multiplexer) Serve() error {
	addrs := distinctListenAddrs(m.Config)

	var g errgroup.Group
	results := make([]*listener, len(addrs))

	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			l, err := newListener(addr.Interface, addr.Port)
			if err != nil {
				return err
			}
			results[i] = l
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, l := range results {
			if l != nil {
				l.Close()
			}
		}
		return err
	}

	m.listeners = results
	for _, l := range m.listeners {
		m.poll.Add(l.fd, pollReadable)
		m.listenerPorts[l.fd] = l.port
	}

	m.Logger.Infof("webserv: listening on %d endpoint(s)", len(m.listeners))

	m.loop()

	return nil
}

// loop is the single-threaded cooperative event loop of spec.md §4.4/§5:
// each iteration sweeps idle connections, then polls for readiness and
// processes events, until a shutdown has been requested and drained.
func (m *Multiplexer) loop() {
	for {
		m.sweepIdle()

		if atomic.LoadInt32(&m.shuttingDown) != 0 && len(m.clients) == 0 {
			m.closeListeners()
			return
		}

		n, err := m.poll.Poll(pollTimeoutMillis)
		if err != nil {
			m.Logger.Errorf("webserv: poll failed: %v", err)
			continue
		}
		if n == 0 {
			continue
		}

		for _, fd := range m.poll.Fds() {
			f := int(fd.Fd)
			if port, ok := m.listenerPorts[f]; ok {
				if m.poll.Readable(f) {
					m.acceptAll(f, port)
				}
				continue
			}

			client, ok := m.clients[f]
			if !ok {
				continue
			}

			if m.poll.Writable(f) && client.state == stateWriting {
				m.handleWritable(client)
				continue
			}
			if m.poll.Readable(f) && client.state == stateReading {
				m.handleReadable(client)
			}
		}
	}
}

// acceptAll drains every pending connection on listening fd lfd.
func (m *Multiplexer) acceptAll(lfd, port int) {
	var l *listener
	for _, candidate := range m.listeners {
		if candidate.fd == lfd {
			l = candidate
			break
		}
	}
	if l == nil {
		return
	}

	for {
		fd, remoteAddr, err := l.Accept()
		if err != nil {
			return
		}

		c := newClient(fd, port, remoteAddr)
		m.clients[fd] = c
		m.poll.Add(fd, pollReadable)
	}
}

// handleReadable advances a client through Reading, and into Routing and
// Writing synchronously once a complete request has been parsed.
func (m *Multiplexer) handleReadable(c *Client) {
	if c.requestStart.IsZero() {
		c.requestStart = time.Now()
	}

	n, err := c.readMore()
	if err != nil {
		if err != errConnClosed {
			m.Logger.Errorf("webserv: read from %s failed: %v", c.remoteAddr, err)
		}
		m.closeClient(c)
		return
	}
	if n == 0 {
		return // EAGAIN: wait for the next readable event
	}

	req, outcome, perr := ParseRequest(c.recvBuf)
	switch outcome {
	case NeedMore:
		return
	case Err:
		pe := perr.(*ParseError)
		m.respondError(c, nil, pe.Status)
	case Ok:
		c.state = stateRouting
		m.route(c, req)
	}
}

// route implements the synchronous Routing state: invoke the Router, hand
// the decision to the matching collaborator, and queue the response.
func (m *Multiplexer) route(c *Client, req *Request) {
	decision := Route(m.Config, req, c.listenerPort)

	if decision.Status >= 400 {
		m.stats.record(decision.Server, decision.Status)
		m.respond(c, req, decision, errorResponseFor(decision))
		return
	}

	resp, err := m.dispatch(decision, req)
	if err != nil {
		m.Logger.Errorf("webserv: handler error: %v", err)
		resp = ErrorResponse(500)
	}
	if _, ok := decision.Server.ErrorPages[resp.Status]; ok && resp.Status >= 400 {
		resp = errorResponseFor(&RouteDecision{Server: decision.Server, Status: resp.Status})
	}

	m.stats.record(decision.Server, resp.Status)
	m.respond(c, req, decision, resp)
}

// dispatch hands control to the out-of-core collaborator named by
// decision.Mode.
func (m *Multiplexer) dispatch(decision *RouteDecision, req *Request) (*Response, error) {
	switch mode := decision.Mode.(type) {
	case ModeRedirect:
		r := NewResponse(mode.Status, nil)
		r.Headers.Set("location", mode.URL)
		return r, nil
	case ModeCGI:
		return m.CGI.ServeCGI(mode.Interpreter, decision.ResolvedPath, req)
	case ModeUpload:
		return m.Uploads.ServeUpload(mode.TargetDir, req)
	case ModeDirectoryListing:
		return m.DirectoryListings.ServeListing(decision.ResolvedPath, decision.MatchedPath)
	default:
		return m.StaticFiles.ServeFile(decision.ResolvedPath, decision.Location.Root, req.Method, req)
	}
}

// errorResponseFor renders the configured error_page for decision's status
// if its server has one, else the built-in default page.
func errorResponseFor(decision *RouteDecision) *Response {
	if decision.Server != nil {
		if path, ok := decision.Server.ErrorPages[decision.Status]; ok {
			data, err := readErrorPageFile(decision.Server.Root, path)
			if err == nil {
				r := NewResponse(decision.Status, data)
				r.Headers.Set("content-type", "text/html; charset=utf-8")
				return r
			}
		}
	}
	return ErrorResponse(decision.Status)
}

// respondError synthesises and queues an error response for a request-path
// parse failure (no RouteDecision exists yet at this point).
func (m *Multiplexer) respondError(c *Client, req *Request, status int) {
	m.stats.recordUnrouted(status)
	resp := ErrorResponse(status)
	m.respond(c, req, nil, resp)
}

// respond assembles resp's wire bytes, queues them on c, and logs the
// completed request.
func (m *Multiplexer) respond(c *Client, req *Request, decision *RouteDecision, resp *Response) {
	version := "HTTP/1.1"
	if req != nil && req.Version != "" {
		version = req.Version
	}

	c.queueResponse(resp.Bytes(version))
	m.poll.Add(c.fd, pollWritable)

	duration := time.Duration(0)
	if !c.requestStart.IsZero() {
		duration = time.Since(c.requestStart)
	}
	m.Logger.LogRequest(req, resp.Status, c.remoteAddr, duration)
}

// handleWritable advances a client through Writing, closing it once fully
// drained (this server never keeps a connection alive past one response).
func (m *Multiplexer) handleWritable(c *Client) {
	if err := c.writeMore(); err != nil {
		m.Logger.Errorf("webserv: write to %s failed: %v", c.remoteAddr, err)
		m.closeClient(c)
		return
	}

	if c.drained() && c.closeAfterWrite {
		m.closeClient(c)
	}
}

// sweepIdle closes every client whose last activity is older than
// clientTimeout, per spec.md §5.
func (m *Multiplexer) sweepIdle() {
	for _, c := range m.clients {
		if c.isTimedOut(clientTimeout) {
			m.closeClient(c)
		}
	}
}

// closeClient removes c from the poll set and client registry and closes
// its fd; this is the only path that closes a client fd (spec.md §5).
func (m *Multiplexer) closeClient(c *Client) {
	m.poll.Remove(c.fd)
	delete(m.clients, c.fd)
	c.close()
}

// closeListeners closes every listening fd; called only on orderly
// shutdown, once every client has drained.
func (m *Multiplexer) closeListeners() {
	for _, l := range m.listeners {
		l.Close()
	}
	m.stats.flush(m.Logger)
}

// Close requests an orderly shutdown: in-flight clients are allowed to
// drain, then listening fds are closed, matching spec.md §5's shutdown
// model. Close returns immediately; Serve's loop performs the actual
// drain-and-close.
func (m *Multiplexer) Close() {
	atomic.StoreInt32(&m.shuttingDown, 1)
}

// readErrorPageFile resolves path against root and reads it; path is
// treated as absolute if it already begins with '/'.
func readErrorPageFile(root, path string) ([]byte, error) {
	full := path
	if len(path) > 0 && path[0] != '/' {
		full = root + "/" + path
	}
	return os.ReadFile(full)
}
