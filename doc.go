/*
Package webserv implements a configurable HTTP/1.x origin server.

It reads an nginx-style configuration file describing virtual hosts and
per-path locations, parses incoming HTTP/1.0 and HTTP/1.1 requests by hand,
routes them against the configuration using a longest-prefix-with-boundary
match, and drives every connection through a single-threaded, non-blocking,
poll-based event loop. There is no goroutine-per-connection model: Reading,
Routing, Writing and Closing are explicit states of a per-connection state
machine stepped forward by readiness events.

The package is organized leaves-first: size and path utilities, the
configuration model and its parser, the request parser, the router, the
collaborator interfaces that the router hands control to (static files,
directory listings, CGI, uploads), and finally the client state machine,
poll set and multiplexer that tie everything together.
*/
package webserv
