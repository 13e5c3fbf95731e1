package webserv

import "strings"

// Headers is a case-insensitive multi-value header map. Names are always
// stored lowercased; repeated headers of the same name are stored as
// separate entries and surfaced comma-joined by Get, per RFC 7230.
type Headers struct {
	m map[string][]string
}

// newHeaders returns a pointer of a new instance of the `Headers`.
func newHeaders() *Headers {
	return &Headers{m: map[string][]string{}}
}

// Add appends value to the values already stored for name.
func (h *Headers) Add(name, value string) {
	name = strings.ToLower(strings.TrimSpace(name))
	h.m[name] = append(h.m[name], strings.TrimSpace(value))
}

// Set replaces any existing values for name with value.
func (h *Headers) Set(name, value string) {
	name = strings.ToLower(strings.TrimSpace(name))
	h.m[name] = []string{value}
}

// Get returns the values for name joined with ", ", or "" if absent.
func (h *Headers) Get(name string) string {
	vs := h.m[strings.ToLower(name)]
	if len(vs) == 0 {
		return ""
	}
	return strings.Join(vs, ", ")
}

// Values returns the raw, unjoined values stored for name.
func (h *Headers) Values(name string) []string {
	return h.m[strings.ToLower(name)]
}

// Has reports whether name has at least one stored value.
func (h *Headers) Has(name string) bool {
	_, ok := h.m[strings.ToLower(name)]
	return ok
}

// Delete removes all values stored for name.
func (h *Headers) Delete(name string) {
	delete(h.m, strings.ToLower(name))
}

// Names returns every stored header name, already lowercased.
func (h *Headers) Names() []string {
	names := make([]string, 0, len(h.m))
	for k := range h.m {
		names = append(names, k)
	}
	return names
}
