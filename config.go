package webserv

import "fmt"

// defaultClientMaxBodySize is the effective body limit used when neither the
// HTTP block, a server nor a location specifies one.
const defaultClientMaxBodySize int64 = 1 << 20 // 1 MiB

// Listen is one `(interface, port)` pair a ServerBlock accepts connections
// on.
type Listen struct {
	Interface string
	Port      int
}

// String returns the "iface:port" form Listen was parsed from.
func (l Listen) String() string {
	return fmt.Sprintf("%s:%d", l.Interface, l.Port)
}

// triState models a directive that can be unset, explicitly enabled or
// explicitly disabled, matching spec.md's tri-state autoindex.
type triState uint8

const (
	triUnset triState = iota
	triOn
	triOff
)

// LocationBlock is a URL-path prefix with attached policy. One or more
// LocationBlocks hang off a ServerBlock (the parser rejects a server with
// none); Path is unique within its parent.
type LocationBlock struct {
	Path              string
	Root              string
	autoindex         triState
	Indexes           []string
	UploadDir         string
	CGIPass           map[string]string // extension (".php") -> interpreter path
	RedirectStatus    int
	RedirectURL       string
	ClientMaxBodySize int64
	AllowedMethods    map[string]bool
}

// Autoindex reports whether directory listing is enabled for l, after
// defaulting (unset defaults to off).
func (l *LocationBlock) Autoindex() bool {
	return l.autoindex == triOn
}

// HasRedirect reports whether l is configured with a `return` directive.
func (l *LocationBlock) HasRedirect() bool {
	return l.RedirectURL != ""
}

// MethodAllowed reports whether method is permitted at this location.
func (l *LocationBlock) MethodAllowed(method string) bool {
	return l.AllowedMethods[method]
}

// ServerBlock is one virtual host: a set of listen endpoints, an optional
// set of server names, and its locations.
type ServerBlock struct {
	Listen            []Listen
	ServerNames       []string
	Root              string
	Indexes           []string
	ClientMaxBodySize int64
	ErrorPages        map[int]string // status -> file path; a relative path is resolved against Root
	Locations         []*LocationBlock
}

// ListensOnPort reports whether s accepts connections on port.
func (s *ServerBlock) ListensOnPort(port int) bool {
	for _, l := range s.Listen {
		if l.Port == port {
			return true
		}
	}
	return false
}

// HasServerName reports whether name is among s's configured server names.
func (s *ServerBlock) HasServerName(name string) bool {
	for _, n := range s.ServerNames {
		if n == name {
			return true
		}
	}
	return false
}

// HTTPConfig is the root of the configuration tree: the validated,
// defaulted result of parsing a configuration file. It is built once by
// the Config Parser and is immutable thereafter.
type HTTPConfig struct {
	ClientMaxBodySize int64
	Servers           []*ServerBlock
}

// Finalize applies the defaulting pass of spec.md §3.1: body-size
// inheritance (location -> server -> http -> 1 MiB), index inheritance,
// root inheritance, and empty-allowed-methods defaulting to {GET}. It is
// called once by the Config Parser after structural validation succeeds.
func (c *HTTPConfig) Finalize() error {
	if c.ClientMaxBodySize == 0 {
		c.ClientMaxBodySize = defaultClientMaxBodySize
	}

	for _, srv := range c.Servers {
		if srv.ClientMaxBodySize == 0 {
			srv.ClientMaxBodySize = c.ClientMaxBodySize
		}
		if len(srv.Indexes) == 0 {
			srv.Indexes = []string{"index.html"}
		}
		if srv.ErrorPages == nil {
			srv.ErrorPages = map[int]string{}
		}

		for _, loc := range srv.Locations {
			if loc.Root == "" {
				loc.Root = srv.Root
			}
			if loc.Root == "" {
				return fmt.Errorf(
					"webserv: location %q has no root and its server has none either",
					loc.Path,
				)
			}
			if loc.ClientMaxBodySize == 0 {
				loc.ClientMaxBodySize = srv.ClientMaxBodySize
			}
			if len(loc.Indexes) == 0 {
				loc.Indexes = srv.Indexes
			}
			if len(loc.AllowedMethods) == 0 {
				loc.AllowedMethods = map[string]bool{"GET": true}
			}
			if loc.CGIPass == nil {
				loc.CGIPass = map[string]string{}
			}
		}
	}

	return nil
}

// DefaultServerForPort returns the first server, in configuration order,
// whose Listen includes port, or nil if none does.
func (c *HTTPConfig) DefaultServerForPort(port int) *ServerBlock {
	for _, s := range c.Servers {
		if s.ListensOnPort(port) {
			return s
		}
	}
	return nil
}
