package response

import (
	_ "embed"
	"fmt"
)

type StatusCode int

const (
	OK                    StatusCode = 200
	NOT_FOUND             StatusCode = 404
	INTERNAL_SERVER_ERROR StatusCode = 500
)

var StatusCodeName = map[StatusCode]string{
	OK:                    "OK",
	NOT_FOUND:             "Not Found",
	INTERNAL_SERVER_ERROR: "Internal Server Error",
}

const httpVersion = "HTTP/1.1"
const contentType = "text/html"

// notFoundPage is the built-in error page, embedded at build time and never
// mutated. Every 404 on the wire carries this body.
//
//go:embed static/404.html
var notFoundPage string

// Response is an outbound HTTP response, produced by a handler and
// serialized exactly once.
type Response struct {
	Status StatusCode
	body   string
}

// Ok builds a 200 response carrying body.
func Ok(body string) Response {
	return Response{Status: OK, body: body}
}

// NotFound builds a 404 response. The message is internal only (logging,
// diagnostics); serialization always emits the embedded 404 page instead.
func NotFound(message string) Response {
	return Response{Status: NOT_FOUND, body: message}
}

// InternalServerError builds the fixed empty-body 500 response the
// dispatcher falls back to on any connection-local failure.
func InternalServerError() Response {
	return Response{Status: INTERNAL_SERVER_ERROR}
}

// Message returns the internal payload attached to the response. For 404s
// this is never written to the wire.
func (r Response) Message() string {
	return r.body
}

// Bytes serializes the response: status line, Content-Type, Content-Length,
// blank line, body. Pure and deterministic.
func (r Response) Bytes() []byte {
	body := r.body
	switch r.Status {
	case NOT_FOUND:
		body = notFoundPage
	case INTERNAL_SERVER_ERROR:
		body = ""
	}

	reason, ok := StatusCodeName[r.Status]
	if !ok {
		reason = "Unknown"
	}

	return []byte(fmt.Sprintf("%s %d %s\r\nContent-Type: %s\r\nContent-Length: %d\r\n\r\n%s",
		httpVersion, int(r.Status), reason, contentType, len(body), body))
}
