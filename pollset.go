package webserv

import "golang.org/x/sys/unix"

// Poll event masks, aliased from golang.org/x/sys/unix for readability at
// call sites.
const (
	pollReadable = unix.POLLIN
	pollWritable = unix.POLLOUT
)

// pollSet is a flat, swap-remove array of poll records, matching spec.md
// §4.4's "flat sequence of poll records (fd, interested_events, revents)
// ... Removal is O(1) by swap-with-last."
type pollSet struct {
	fds   []unix.PollFd
	index map[int]int // fd -> position in fds
}

// newPollSet returns a pointer of a new instance of the `pollSet`.
func newPollSet() *pollSet {
	return &pollSet{index: map[int]int{}}
}

// Add registers fd with the given interest mask, or updates its mask if fd
// is already registered.
func (p *pollSet) Add(fd int, events int16) {
	if i, ok := p.index[fd]; ok {
		p.fds[i].Events = events
		return
	}

	p.index[fd] = len(p.fds)
	p.fds = append(p.fds, unix.PollFd{Fd: int32(fd), Events: events})
}

// Remove deregisters fd, swapping the last record into its place.
func (p *pollSet) Remove(fd int) {
	i, ok := p.index[fd]
	if !ok {
		return
	}

	last := len(p.fds) - 1
	p.fds[i] = p.fds[last]
	p.fds = p.fds[:last]
	delete(p.index, fd)

	if i != last {
		p.index[int(p.fds[i].Fd)] = i
	}
}

// Len returns the number of registered fds.
func (p *pollSet) Len() int {
	return len(p.fds)
}

// Poll resets revents then calls poll(2) with the given millisecond
// timeout, returning the number of fds with events ready, or an error.
func (p *pollSet) Poll(timeoutMillis int) (int, error) {
	for i := range p.fds {
		p.fds[i].Revents = 0
	}
	return unix.Poll(p.fds, timeoutMillis)
}

// Readable reports whether fd has a readable event pending after Poll.
func (p *pollSet) Readable(fd int) bool {
	i, ok := p.index[fd]
	if !ok {
		return false
	}
	return p.fds[i].Revents&(pollReadable|unix.POLLHUP|unix.POLLERR) != 0
}

// Writable reports whether fd has a writable event pending after Poll.
func (p *pollSet) Writable(fd int) bool {
	i, ok := p.index[fd]
	if !ok {
		return false
	}
	return p.fds[i].Revents&pollWritable != 0
}

// Fds returns the fds currently registered, in no particular order; callers
// must not mutate the returned slice.
func (p *pollSet) Fds() []unix.PollFd {
	return p.fds
}
