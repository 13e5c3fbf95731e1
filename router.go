package webserv

import "strings"

// RouteMode is the tagged union of handling modes a RouteDecision can carry,
// per spec.md §9's "state machines as sum types" note: one interface
// implemented by five concrete types through a single unexported marker
// method, rather than a bundle of boolean flags and nullable fields.
type RouteMode interface {
	routeMode()
}

// ModeStatic serves a file directly from the resolved filesystem path.
type ModeStatic struct{}

func (ModeStatic) routeMode() {}

// ModeDirectoryListing renders an HTML listing of ResolvedPath's children.
type ModeDirectoryListing struct{}

func (ModeDirectoryListing) routeMode() {}

// ModeRedirect returns Status with a Location header of URL.
type ModeRedirect struct {
	Status int
	URL    string
}

func (ModeRedirect) routeMode() {}

// ModeCGI invokes Interpreter against the resolved script path.
type ModeCGI struct {
	Interpreter string
}

func (ModeCGI) routeMode() {}

// ModeUpload writes the request body under TargetDir.
type ModeUpload struct {
	TargetDir string
}

func (ModeUpload) routeMode() {}

// RouteDecision is the result of routing a Request against an HTTPConfig.
type RouteDecision struct {
	Server        *ServerBlock
	Location      *LocationBlock
	ResolvedPath  string
	MatchedPath   string
	RemainingPath string
	Mode          RouteMode
	Status        int
	ErrorMessage  string
}

// IsExistingDirectory reports whether path refers to a directory; it is a
// function value so the router needn't import os/filesystem concerns
// directly, and tests can substitute a fake. Defaults to os.Stat.
var IsExistingDirectory = isExistingDirectoryOS

// Route maps req, received on the given listening port, to a RouteDecision.
// Policy checks run in the fixed order of spec.md §4.3: redirect, method,
// body size; the first failure sets Status and stops further checks from
// overriding it.
func Route(cfg *HTTPConfig, req *Request, port int) *RouteDecision {
	server := selectServer(cfg, req, port)
	if server == nil {
		return &RouteDecision{
			Status:       500,
			ErrorMessage: "No server configured for this port",
		}
	}

	location := selectLocation(server, req.URIPath)
	if location == nil {
		return &RouteDecision{
			Server:       server,
			Status:       404,
			ErrorMessage: "No location matches this URI",
		}
	}

	decision := &RouteDecision{
		Server:   server,
		Location: location,
		Status:   200,
	}

	if location.HasRedirect() {
		decision.Mode = ModeRedirect{Status: location.RedirectStatus, URL: location.RedirectURL}
		decision.Status = location.RedirectStatus
		return decision
	}

	if !location.MethodAllowed(req.Method) {
		decision.Status = 405
		decision.ErrorMessage = "Method not allowed at this location"
		return decision
	}

	if req.ContentLen > 0 && req.ContentLen > location.ClientMaxBodySize {
		decision.Status = 413
		decision.ErrorMessage = "Request body exceeds the location's limit"
		return decision
	}

	resolved, matched, remaining := resolvePath(location, req.URIPath)
	decision.ResolvedPath = resolved
	decision.MatchedPath = matched
	decision.RemainingPath = remaining
	decision.Mode = selectMode(location, req, resolved)

	return decision
}

// selectServer implements spec.md §4.3's server selection: among servers
// listening on port, prefer an exact server_name match, else the first such
// server in configuration order (the default for that port).
func selectServer(cfg *HTTPConfig, req *Request, port int) *ServerBlock {
	var fallback *ServerBlock

	for _, s := range cfg.Servers {
		if !s.ListensOnPort(port) {
			continue
		}
		if fallback == nil {
			fallback = s
		}
		if req.Host != "" && s.HasServerName(req.Host) {
			return s
		}
	}

	return fallback
}

// selectLocation finds the longest-prefix-with-boundary match among
// server's locations for the normalised uri.
func selectLocation(server *ServerBlock, uri string) *LocationBlock {
	var best *LocationBlock

	for _, loc := range server.Locations {
		if !hasPathBoundary(uri, loc.Path) {
			continue
		}
		if best == nil || len(loc.Path) > len(best.Path) {
			best = loc
		}
	}

	return best
}

// resolvePath implements spec.md §4.3 path resolution.
func resolvePath(loc *LocationBlock, uri string) (resolved, matched, remaining string) {
	root := loc.Root
	p := loc.Path

	if p == "/" {
		return root + uri, p, strings.TrimPrefix(uri, "/")
	}

	if uri == p {
		return root, p, ""
	}

	suffix := uri[len(p):]
	if suffix != "" && suffix[0] != '/' {
		suffix = "/" + suffix
	}

	return root + suffix, p, strings.TrimPrefix(suffix, "/")
}

// selectMode implements spec.md §4.3 mode selection, checked in order:
// CGI extension match, then upload, then directory listing, else static.
func selectMode(loc *LocationBlock, req *Request, resolvedPath string) RouteMode {
	if ext := extensionOf(resolvedPath); ext != "" {
		if interp, ok := loc.CGIPass[ext]; ok {
			return ModeCGI{Interpreter: interp}
		}
	}

	if req.Method == "POST" && loc.UploadDir != "" {
		return ModeUpload{TargetDir: loc.UploadDir}
	}

	if loc.Autoindex() && IsExistingDirectory(resolvedPath) {
		return ModeDirectoryListing{}
	}

	return ModeStatic{}
}

// extensionOf returns the trailing extension of path, including its leading
// dot, or "" if path has none.
func extensionOf(path string) string {
	slash := strings.LastIndexByte(path, '/')
	base := path
	if slash >= 0 {
		base = path[slash+1:]
	}

	dot := strings.LastIndexByte(base, '.')
	if dot < 0 {
		return ""
	}

	return base[dot:]
}
