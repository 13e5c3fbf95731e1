package webserv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPollSetAddRemoveSwap(t *testing.T) {
	p := newPollSet()
	p.Add(1, pollReadable)
	p.Add(2, pollReadable)
	p.Add(3, pollReadable)
	assert.Equal(t, 3, p.Len())

	p.Remove(2)
	assert.Equal(t, 2, p.Len())

	found := map[int]bool{}
	for _, f := range p.Fds() {
		found[int(f.Fd)] = true
	}
	assert.True(t, found[1])
	assert.True(t, found[3])
	assert.False(t, found[2])
}

func TestPollSetAddUpdatesExistingMask(t *testing.T) {
	p := newPollSet()
	p.Add(5, pollReadable)
	p.Add(5, pollReadable|pollWritable)
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, int16(pollReadable|pollWritable), p.Fds()[0].Events)
}

func TestPollSetRemoveMissingIsNoop(t *testing.T) {
	p := newPollSet()
	p.Add(1, pollReadable)
	p.Remove(99)
	assert.Equal(t, 1, p.Len())
}
