package webserv

import "fmt"

// ParseError is returned by ParseRequest when a request is structurally
// invalid. Status is one of the codes in the error taxonomy: 400, 411, 414,
// 501 or 505.
type ParseError struct {
	Status int
	Reason string
}

// Error implements the `error` interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("webserv: %d %s", e.Status, e.Reason)
}

// newParseError returns a pointer of a new instance of the `ParseError`.
func newParseError(status int, reason string) *ParseError {
	return &ParseError{Status: status, Reason: reason}
}

// defaultErrorBody renders the minimal built-in HTML page used
// when the matched server has no `error_page` entry for status.
func defaultErrorBody(status int, reason string) []byte {
	text := StatusText(status)
	return []byte(fmt.Sprintf(
		"<html>\r\n<head><title>%d %s</title></head>\r\n"+
			"<body>\r\n<center><h1>%d %s</h1></center>\r\n"+
			"<hr><center>webserv</center>\r\n</body>\r\n</html>\r\n",
		status, text, status, text,
	))
}
