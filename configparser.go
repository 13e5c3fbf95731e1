package webserv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// tokKind distinguishes a structural brace/semicolon token from a word.
type tokKind uint8

const (
	tokWord tokKind = iota
	tokOpenBrace
	tokCloseBrace
	tokSemicolon
)

type token struct {
	kind tokKind
	text string
}

// tokenize splits r into a flat token stream, stripping `#`-to-end-of-line
// comments and treating `{`, `}` and `;` as structural separators.
func tokenize(r io.Reader) ([]token, error) {
	var toks []token
	br := bufio.NewReader(r)
	var word strings.Builder

	flush := func() {
		if word.Len() > 0 {
			toks = append(toks, token{tokWord, word.String()})
			word.Reset()
		}
	}

	inComment := false
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if inComment {
			if b == '\n' {
				inComment = false
			}
			continue
		}

		switch b {
		case '#':
			inComment = true
			flush()
		case '{':
			flush()
			toks = append(toks, token{tokOpenBrace, "{"})
		case '}':
			flush()
			toks = append(toks, token{tokCloseBrace, "}"})
		case ';':
			flush()
			toks = append(toks, token{tokSemicolon, ";"})
		case ' ', '\t', '\r', '\n':
			flush()
		default:
			word.WriteByte(b)
		}
	}
	flush()

	return toks, nil
}

// scope identifies which of the three nested configuration scopes a
// directive is being parsed in.
type scope uint8

const (
	scopeHTTP scope = iota
	scopeServer
	scopeLocation
)

// parser walks a token stream with one position cursor, building an
// HTTPConfig. It reports the first validation failure it encounters,
// naming the offending directive and value per spec.md §4.1.
type parser struct {
	toks []token
	pos  int
}

// ParseConfigFile reads and parses the configuration file at path.
func ParseConfigFile(path string) (*HTTPConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("webserv: cannot open config %s: %w", path, err)
	}
	defer f.Close()

	return ParseConfig(f)
}

// ParseConfig parses a configuration document from r.
func ParseConfig(r io.Reader) (*HTTPConfig, error) {
	toks, err := tokenize(r)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks}
	cfg, err := p.parseHTTP()
	if err != nil {
		return nil, err
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

// readStatement reads the words of one directive/block-opener up to the
// next `;` or `{`, returning those words and which terminator was hit.
func (p *parser) readStatement() ([]string, tokKind, error) {
	var words []string
	for {
		t, ok := p.next()
		if !ok {
			return nil, 0, fmt.Errorf("webserv: unexpected end of config, missing ';' or '{'")
		}
		switch t.kind {
		case tokWord:
			words = append(words, t.text)
		case tokSemicolon, tokOpenBrace:
			return words, t.kind, nil
		case tokCloseBrace:
			return nil, 0, fmt.Errorf("webserv: unexpected '}'")
		}
	}
}

func (p *parser) parseHTTP() (*HTTPConfig, error) {
	cfg := &HTTPConfig{}

	for {
		t, ok := p.peek()
		if !ok {
			break
		}
		if t.kind == tokCloseBrace {
			return nil, fmt.Errorf("webserv: unexpected '}' at top level")
		}

		words, term, err := p.readStatement()
		if err != nil {
			return nil, err
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("webserv: empty directive")
		}

		name := words[0]
		args := words[1:]

		switch name {
		case "http":
			if term != tokOpenBrace {
				return nil, fmt.Errorf("webserv: 'http' must open a block")
			}
			if err := p.parseHTTPBlock(cfg); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("webserv: unrecognised top-level directive %q", name)
		}
	}

	if len(cfg.Servers) == 0 {
		return nil, fmt.Errorf("webserv: configuration must declare at least one server")
	}

	return cfg, nil
}

func (p *parser) parseHTTPBlock(cfg *HTTPConfig) error {
	seen := map[string]bool{}

	for {
		t, ok := p.peek()
		if !ok {
			return fmt.Errorf("webserv: missing closing '}' for http block")
		}
		if t.kind == tokCloseBrace {
			p.next()
			return nil
		}

		words, term, err := p.readStatement()
		if err != nil {
			return err
		}
		if len(words) == 0 {
			return fmt.Errorf("webserv: empty directive in http block")
		}

		name, args := words[0], words[1:]

		switch name {
		case "server":
			if term != tokOpenBrace {
				return fmt.Errorf("webserv: 'server' must open a block")
			}
			srv, err := p.parseServerBlock()
			if err != nil {
				return err
			}
			cfg.Servers = append(cfg.Servers, srv)
		case "client_max_body_size":
			if seen[name] {
				return fmt.Errorf("webserv: duplicate directive %q in http block", name)
			}
			seen[name] = true
			if term != tokSemicolon || len(args) != 1 {
				return fmt.Errorf("webserv: 'client_max_body_size' takes exactly one value")
			}
			size, err := ParseSize(args[0])
			if err != nil {
				return fmt.Errorf("webserv: invalid client_max_body_size %q: %w", args[0], err)
			}
			cfg.ClientMaxBodySize = size
		default:
			return fmt.Errorf("webserv: unrecognised http-scope directive %q", name)
		}
	}
}

func (p *parser) parseServerBlock() (*ServerBlock, error) {
	srv := &ServerBlock{ErrorPages: map[int]string{}}
	seen := map[string]bool{}
	listenSeen := map[string]bool{}
	pathSeen := map[string]bool{}

	for {
		t, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("webserv: missing closing '}' for server block")
		}
		if t.kind == tokCloseBrace {
			p.next()
			break
		}

		words, term, err := p.readStatement()
		if err != nil {
			return nil, err
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("webserv: empty directive in server block")
		}

		name, args := words[0], words[1:]

		switch name {
		case "location":
			if term != tokOpenBrace || len(args) != 1 {
				return nil, fmt.Errorf("webserv: 'location' requires exactly one path and opens a block")
			}
			path := args[0]
			if !strings.HasPrefix(path, "/") {
				return nil, fmt.Errorf("webserv: location path %q must begin with '/'", path)
			}
			if pathSeen[path] {
				return nil, fmt.Errorf("webserv: duplicate location path %q", path)
			}
			pathSeen[path] = true

			loc, err := p.parseLocationBlock(path)
			if err != nil {
				return nil, err
			}
			srv.Locations = append(srv.Locations, loc)
		case "listen":
			if term != tokSemicolon || len(args) != 1 {
				return nil, fmt.Errorf("webserv: 'listen' takes exactly one value")
			}
			l, err := parseListen(args[0])
			if err != nil {
				return nil, err
			}
			key := l.String()
			if listenSeen[key] {
				return nil, fmt.Errorf("webserv: duplicate listen %q in server", key)
			}
			listenSeen[key] = true
			srv.Listen = append(srv.Listen, l)
		case "server_name":
			if seen[name] {
				return nil, fmt.Errorf("webserv: duplicate directive %q in server block", name)
			}
			seen[name] = true
			if term != tokSemicolon || len(args) == 0 {
				return nil, fmt.Errorf("webserv: 'server_name' requires at least one value")
			}
			srv.ServerNames = args
		case "root":
			if seen[name] {
				return nil, fmt.Errorf("webserv: duplicate directive %q in server block", name)
			}
			seen[name] = true
			if term != tokSemicolon || len(args) != 1 {
				return nil, fmt.Errorf("webserv: 'root' takes exactly one value")
			}
			srv.Root = strings.TrimSuffix(args[0], "/")
		case "index":
			if seen[name] {
				return nil, fmt.Errorf("webserv: duplicate directive %q in server block", name)
			}
			seen[name] = true
			if term != tokSemicolon || len(args) == 0 {
				return nil, fmt.Errorf("webserv: 'index' requires at least one value")
			}
			srv.Indexes = args
		case "client_max_body_size":
			if seen[name] {
				return nil, fmt.Errorf("webserv: duplicate directive %q in server block", name)
			}
			seen[name] = true
			if term != tokSemicolon || len(args) != 1 {
				return nil, fmt.Errorf("webserv: 'client_max_body_size' takes exactly one value")
			}
			size, err := ParseSize(args[0])
			if err != nil {
				return nil, fmt.Errorf("webserv: invalid client_max_body_size %q: %w", args[0], err)
			}
			srv.ClientMaxBodySize = size
		case "error_page":
			if term != tokSemicolon || len(args) < 2 {
				return nil, fmt.Errorf("webserv: 'error_page' requires one or more codes and a path")
			}
			path := args[len(args)-1]
			for _, codeStr := range args[:len(args)-1] {
				code, err := strconv.Atoi(codeStr)
				if err != nil || code < 100 || code > 599 {
					return nil, fmt.Errorf("webserv: invalid error_page status %q", codeStr)
				}
				srv.ErrorPages[code] = path
			}
		default:
			return nil, fmt.Errorf("webserv: unrecognised server-scope directive %q", name)
		}
	}

	if len(srv.Listen) == 0 {
		return nil, fmt.Errorf("webserv: server block requires at least one 'listen'")
	}
	if len(srv.Locations) == 0 {
		return nil, fmt.Errorf("webserv: server block requires at least one 'location'")
	}

	return srv, nil
}

func (p *parser) parseLocationBlock(path string) (*LocationBlock, error) {
	loc := &LocationBlock{Path: path, CGIPass: map[string]string{}}
	seen := map[string]bool{}

	for {
		t, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("webserv: missing closing '}' for location %q", path)
		}
		if t.kind == tokCloseBrace {
			p.next()
			break
		}

		words, term, err := p.readStatement()
		if err != nil {
			return nil, err
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("webserv: empty directive in location %q", path)
		}
		if term != tokSemicolon {
			return nil, fmt.Errorf("webserv: directive %q in location %q may not open a block", words[0], path)
		}

		name, args := words[0], words[1:]

		switch name {
		case "root":
			if seen[name] {
				return nil, fmt.Errorf("webserv: duplicate directive %q in location %q", name, path)
			}
			seen[name] = true
			if len(args) != 1 {
				return nil, fmt.Errorf("webserv: 'root' takes exactly one value")
			}
			loc.Root = strings.TrimSuffix(args[0], "/")
		case "autoindex":
			if seen[name] {
				return nil, fmt.Errorf("webserv: duplicate directive %q in location %q", name, path)
			}
			seen[name] = true
			if len(args) != 1 {
				return nil, fmt.Errorf("webserv: 'autoindex' takes exactly one value")
			}
			switch args[0] {
			case "on":
				loc.autoindex = triOn
			case "off":
				loc.autoindex = triOff
			default:
				return nil, fmt.Errorf("webserv: 'autoindex' value must be 'on' or 'off', got %q", args[0])
			}
		case "index":
			if seen[name] {
				return nil, fmt.Errorf("webserv: duplicate directive %q in location %q", name, path)
			}
			seen[name] = true
			if len(args) == 0 {
				return nil, fmt.Errorf("webserv: 'index' requires at least one value")
			}
			loc.Indexes = args
		case "client_max_body_size":
			if seen[name] {
				return nil, fmt.Errorf("webserv: duplicate directive %q in location %q", name, path)
			}
			seen[name] = true
			if len(args) != 1 {
				return nil, fmt.Errorf("webserv: 'client_max_body_size' takes exactly one value")
			}
			size, err := ParseSize(args[0])
			if err != nil {
				return nil, fmt.Errorf("webserv: invalid client_max_body_size %q: %w", args[0], err)
			}
			loc.ClientMaxBodySize = size
		case "methods":
			if seen[name] {
				return nil, fmt.Errorf("webserv: duplicate directive %q in location %q", name, path)
			}
			seen[name] = true
			if len(args) == 0 {
				return nil, fmt.Errorf("webserv: 'methods' requires at least one value")
			}
			loc.AllowedMethods = map[string]bool{}
			for _, m := range args {
				if !recognisedRequestMethods[m] {
					return nil, fmt.Errorf("webserv: unknown method %q", m)
				}
				loc.AllowedMethods[m] = true
			}
		case "return":
			if seen[name] {
				return nil, fmt.Errorf("webserv: duplicate directive %q in location %q", name, path)
			}
			seen[name] = true
			status, url, err := parseReturn(args)
			if err != nil {
				return nil, err
			}
			loc.RedirectStatus = status
			loc.RedirectURL = url
		case "cgi_pass":
			if len(args) != 1 {
				return nil, fmt.Errorf("webserv: 'cgi_pass' takes exactly one ext:interpreter pair")
			}
			ext, interp, err := parseCGIPass(args[0])
			if err != nil {
				return nil, err
			}
			loc.CGIPass[ext] = interp
		case "upload_dir":
			if seen[name] {
				return nil, fmt.Errorf("webserv: duplicate directive %q in location %q", name, path)
			}
			seen[name] = true
			if len(args) != 1 {
				return nil, fmt.Errorf("webserv: 'upload_dir' takes exactly one value")
			}
			if !strings.HasPrefix(args[0], "/") {
				return nil, fmt.Errorf("webserv: 'upload_dir' must be absolute, got %q", args[0])
			}
			loc.UploadDir = args[0]
		default:
			return nil, fmt.Errorf("webserv: unrecognised location-scope directive %q", name)
		}
	}

	return loc, nil
}

var validRedirectStatus = map[int]bool{301: true, 302: true, 303: true, 307: true, 308: true}

// parseReturn parses `return [status] <url>`. A bare `return <url>` defaults
// to 301, matching original_source's hardcoded single-argument form.
func parseReturn(args []string) (int, string, error) {
	switch len(args) {
	case 1:
		if !strings.HasPrefix(args[0], "/") {
			return 0, "", fmt.Errorf("webserv: 'return' url must begin with '/', got %q", args[0])
		}
		return 301, args[0], nil
	case 2:
		status, err := strconv.Atoi(args[0])
		if err != nil || !validRedirectStatus[status] {
			return 0, "", fmt.Errorf("webserv: invalid 'return' status %q", args[0])
		}
		if !strings.HasPrefix(args[1], "/") {
			return 0, "", fmt.Errorf("webserv: 'return' url must begin with '/', got %q", args[1])
		}
		return status, args[1], nil
	default:
		return 0, "", fmt.Errorf("webserv: 'return' takes one or two arguments")
	}
}

// parseCGIPass parses `.ext:/abs/path/to/interpreter`.
func parseCGIPass(spec string) (ext, interpreter string, err error) {
	i := strings.IndexByte(spec, ':')
	if i < 0 {
		return "", "", fmt.Errorf("webserv: 'cgi_pass' value %q missing ':'", spec)
	}
	ext, interpreter = spec[:i], spec[i+1:]
	if !strings.HasPrefix(ext, ".") {
		return "", "", fmt.Errorf("webserv: 'cgi_pass' extension %q must start with '.'", ext)
	}
	if !strings.HasPrefix(interpreter, "/") {
		return "", "", fmt.Errorf("webserv: 'cgi_pass' interpreter %q must be absolute", interpreter)
	}
	return ext, interpreter, nil
}

// parseListen parses "iface:port".
func parseListen(s string) (Listen, error) {
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return Listen{}, fmt.Errorf("webserv: 'listen' value %q missing ':'", s)
	}
	iface, portStr := s[:i], s[i+1:]
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return Listen{}, fmt.Errorf("webserv: invalid 'listen' port in %q", s)
	}
	return Listen{Interface: iface, Port: port}, nil
}
