package webserv

import (
	"fmt"
	"strconv"
)

// size multipliers, binary (1024-based) per spec.
const (
	sizeKilo int64 = 1 << 10
	sizeMega int64 = 1 << 20
	sizeGiga int64 = 1 << 30
)

// ParseSize parses an nginx-style size literal: an integer optionally
// suffixed with one of K, k, M, m, G, g, interpreted as binary multipliers.
// A bare integer is interpreted as bytes.
func ParseSize(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("webserv: empty size literal")
	}

	mult := int64(1)
	numPart := s
	switch s[len(s)-1] {
	case 'K', 'k':
		mult = sizeKilo
		numPart = s[:len(s)-1]
	case 'M', 'm':
		mult = sizeMega
		numPart = s[:len(s)-1]
	case 'G', 'g':
		mult = sizeGiga
		numPart = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("webserv: invalid size literal: %s", s)
	}

	return n * mult, nil
}
