package webserv

import (
	"bytes"
	"html/template"
	"os"
	"sort"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

// dirListingTemplate renders the entries of a directory along with their
// size and modification time, per spec.md §6's directory-listing contract.
// The HTML shape itself is intentionally unspecified (spec.md §9); any page
// listing name/size/mtime satisfies it.
var dirListingTemplate = template.Must(template.New("dirlisting").Parse(`<!DOCTYPE html>
<html>
<head><title>Index of {{.Prefix}}</title></head>
<body>
<h1>Index of {{.Prefix}}</h1>
<ul>
{{- range .Entries}}
<li><a href="{{.Href}}">{{.Name}}</a> — {{.Size}} bytes — {{.ModTime}}</li>
{{- end}}
</ul>
</body>
</html>
`))

type dirListingEntry struct {
	Name    string
	Href    string
	Size    int64
	ModTime string
}

type dirListingData struct {
	Prefix  string
	Entries []dirListingEntry
}

// defaultDirectoryListingHandler is the default DirectoryListingHandler. It
// re-renders and minifies on every request: assetCache invalidates by
// watching individual files, not directory membership, so a directory's
// listing has no reliable cache key to invalidate on add/remove/rename.
type defaultDirectoryListingHandler struct {
	minifer *minify.M
}

// newDefaultDirectoryListingHandler returns a pointer of a new instance of
// the `defaultDirectoryListingHandler`.
func newDefaultDirectoryListingHandler() *defaultDirectoryListingHandler {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	return &defaultDirectoryListingHandler{minifer: m}
}

// ServeListing implements the `DirectoryListingHandler`.
func (h *defaultDirectoryListingHandler) ServeListing(resolvedPath, uriPrefix string) (*Response, error) {
	entries, err := os.ReadDir(resolvedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrorResponse(404), nil
		}
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	data := dirListingData{Prefix: uriPrefix}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		href := uriPrefix
		if href == "" || href[len(href)-1] != '/' {
			href += "/"
		}
		href += e.Name()
		if e.IsDir() {
			href += "/"
		}
		data.Entries = append(data.Entries, dirListingEntry{
			Name:    e.Name(),
			Href:    href,
			Size:    info.Size(),
			ModTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
	}

	var buf bytes.Buffer
	if err := dirListingTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}

	minified, err := h.minifer.Bytes("text/html", buf.Bytes())
	if err != nil {
		minified = buf.Bytes()
	}

	r := NewResponse(200, minified)
	r.Headers.Set("content-type", "text/html; charset=utf-8")
	r.Headers.Set("etag", ETag(minified))

	return r, nil
}
