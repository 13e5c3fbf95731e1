package webserv

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// parseCookies parses the value of an incoming `Cookie` header into a
// lowercase-keyed map: split on `;`, then each part on the first `=`.
func parseCookies(header string) map[string]string {
	cookies := map[string]string{}
	if header == "" {
		return cookies
	}

	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}

		name := strings.ToLower(strings.TrimSpace(part[:eq]))
		value := strings.TrimSpace(part[eq+1:])
		if name == "" || !validCookieName(name) {
			continue
		}

		cookies[name] = value
	}

	return cookies
}

// Cookie is an outgoing Set-Cookie value a collaborator may attach to a
// response.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	Expires  time.Time
	MaxAge   int
	Secure   bool
	HTTPOnly bool
}

// String serializes c into a Set-Cookie header value.
func (c *Cookie) String() string {
	if !validCookieName(c.Name) {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s=%s", c.Name, sanitize(c.Value))

	if c.Path != "" {
		fmt.Fprintf(&b, "; Path=%s", c.Path)
	}
	if c.Domain != "" && validCookieDomain(c.Domain) {
		fmt.Fprintf(&b, "; Domain=%s", c.Domain)
	}
	if !c.Expires.IsZero() {
		fmt.Fprintf(&b, "; Expires=%s", c.Expires.UTC().Format(http.TimeFormat))
	}
	if c.MaxAge != 0 {
		fmt.Fprintf(&b, "; Max-Age=%d", c.MaxAge)
	}
	if c.Secure {
		b.WriteString("; Secure")
	}
	if c.HTTPOnly {
		b.WriteString("; HttpOnly")
	}

	return b.String()
}

// validCookieName reports whether name is a valid cookie-name token.
func validCookieName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c <= ' ' || c == ';' || c == '=' || c == 0x7f {
			return false
		}
	}
	return true
}

// validCookieDomain reports whether domain is safe to emit unescaped.
func validCookieDomain(domain string) bool {
	for i := 0; i < len(domain); i++ {
		c := domain[i]
		if c <= ' ' || c == ';' || c == ',' {
			return false
		}
	}
	return true
}

// sanitize strips characters that would break Set-Cookie value syntax.
func sanitize(v string) string {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == ';' || c == ',' || c < ' ' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
