package webserv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSize(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1000", 1000, false},
		{"10K", 10 * 1024, false},
		{"10k", 10 * 1024, false},
		{"5M", 5 * 1024 * 1024, false},
		{"1G", 1 * 1024 * 1024 * 1024, false},
		{"", 0, true},
		{"K", 0, true},
		{"-5M", 0, true},
		{"5X", 0, true},
	}

	for _, c := range cases {
		got, err := ParseSize(c.in)
		if c.wantErr {
			assert.Error(t, err, c.in)
			continue
		}
		assert.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}
