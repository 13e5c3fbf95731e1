package webserv

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// clientState is one state of the per-connection state machine of
// spec.md §4.4.
type clientState uint8

const (
	stateReading clientState = iota
	stateRouting
	stateWriting
	stateClosing
)

// readChunkSize is the size of each non-blocking read attempt.
const readChunkSize = 64 * 1024

// clientBufferPool reuses recv-buffer backing arrays across connections,
// in the spirit of the teacher's sync.Pool-backed Request/Response reuse.
var clientBufferPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, readChunkSize)
		return &b
	},
}

// Client is one accepted connection: its fd, buffers, activity clock and
// current state. It is owned exclusively by the multiplexer.
type Client struct {
	fd           int
	listenerPort int
	remoteAddr   string

	recvBuf []byte
	sendBuf []byte

	lastActivity time.Time
	state        clientState

	requestStart time.Time
	closeAfterWrite bool
}

// newClient returns a pointer of a new instance of the `Client` for an
// accepted fd.
func newClient(fd, listenerPort int, remoteAddr string) *Client {
	bufp := clientBufferPool.Get().(*[]byte)
	return &Client{
		fd:           fd,
		listenerPort: listenerPort,
		remoteAddr:   remoteAddr,
		recvBuf:      (*bufp)[:0],
		lastActivity: time.Now(),
		state:        stateReading,
	}
}

// readMore performs one non-blocking read into recvBuf, returning the
// number of bytes read. unix.EAGAIN is not an error: it means no more data
// is currently available and the caller should wait for the next readable
// event.
func (c *Client) readMore() (int, error) {
	tmp := make([]byte, readChunkSize)
	n, err := unix.Read(c.fd, tmp)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, nil
		}
		return 0, err
	}
	if n == 0 {
		return 0, errConnClosed
	}

	c.recvBuf = append(c.recvBuf, tmp[:n]...)
	c.lastActivity = time.Now()

	return n, nil
}

// writeMore drains sendBuf with repeated non-blocking writes, stopping when
// it is empty or the socket would block.
func (c *Client) writeMore() error {
	for len(c.sendBuf) > 0 {
		n, err := unix.Write(c.fd, c.sendBuf)
		if err != nil {
			if err == unix.EAGAIN {
				return nil
			}
			return err
		}
		c.sendBuf = c.sendBuf[n:]
		c.lastActivity = time.Now()
	}
	return nil
}

// queueResponse appends resp's wire bytes to sendBuf and marks the
// connection to close once fully drained, matching spec.md §4.4 ("this
// implementation closes after each response").
func (c *Client) queueResponse(resp []byte) {
	c.sendBuf = append(c.sendBuf, resp...)
	c.closeAfterWrite = true
	c.state = stateWriting
}

// drained reports whether sendBuf has been fully written.
func (c *Client) drained() bool {
	return len(c.sendBuf) == 0
}

// isTimedOut reports whether c has been idle longer than timeout.
func (c *Client) isTimedOut(timeout time.Duration) bool {
	return time.Since(c.lastActivity) > timeout
}

// resetForNextRequest clears recvBuf after a request has been fully
// consumed. Nothing calls it: every response closes the connection, and the
// NeedMore path keeps recvBuf so the next read extends the partial request.
func (c *Client) resetForNextRequest() {
	c.recvBuf = c.recvBuf[:0]
}

// close releases c's fd and returns its buffer to the pool.
func (c *Client) close() {
	unix.Close(c.fd)
	buf := c.recvBuf[:0]
	clientBufferPool.Put(&buf)
}

// errConnClosed signals an orderly peer close (read returned 0 bytes).
var errConnClosed = errConnClosedErr{}

type errConnClosedErr struct{}

func (errConnClosedErr) Error() string { return "webserv: connection closed by peer" }
