package request

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Method identifies the HTTP method of a parsed request.
type Method int

const (
	// Unidentified marks a request that matched no registered route. The
	// routing table stores its fallback handler under this method.
	Unidentified Method = iota
	GET
	POST
)

var methodName = map[Method]string{
	Unidentified: "UNIDENTIFIED",
	GET:          "GET",
	POST:         "POST",
}

func (m Method) String() string {
	if s, ok := methodName[m]; ok {
		return s
	}
	return "UNKNOWN"
}

// Request is a parsed HTTP/1.1 request. Only GET and POST are supported;
// POST carries a body sized by its Content-Length header.
type Request struct {
	Method Method
	Path   string
	Body   string
}

// Key is the routing identity of a request: method and path only. The body
// is excluded so every POST to a given path routes to the same handler
// regardless of payload.
type Key struct {
	Method Method
	Path   string
}

// Key returns the routing identity of r.
func (r Request) Key() Key {
	return Key{Method: r.Method, Path: r.Path}
}

// Get builds the routing key for a GET route.
func Get(path string) Key {
	return Key{Method: GET, Path: path}
}

// Post builds the routing key for a POST route.
func Post(path string) Key {
	return Key{Method: POST, Path: path}
}

// Predefined errors for different validation failures.
var (
	ErrMissingMethod        = errors.New("request line missing method")
	ErrMissingURI           = errors.New("request line missing uri")
	ErrMissingProtocol      = errors.New("request line missing protocol")
	ErrMalformedRequestLine = errors.New("malformed request-line")
	ErrUnsupportedProtocol  = errors.New("unsupported protocol, server speaks HTTP/1.1 only")
	ErrUnsupportedMethod    = errors.New("unsupported http method")
)

const (
	protocolHTTP11      = "HTTP/1.1"
	contentLengthPrefix = "Content-Length:"
)

// ReadRequest reads one request from r: header lines up to the blank-line
// sentinel, then, for POST, exactly Content-Length body bytes. A short body
// surfaces as an I/O error from the reader, not a protocol error.
func ReadRequest(r io.Reader) (Request, error) {
	br := bufio.NewReader(r)

	lines, err := readHeaderLines(br)
	if err != nil {
		return Request{}, err
	}
	if len(lines) == 0 {
		return Request{}, ErrMissingMethod
	}

	req, err := ParseRequestLine(lines[0])
	if err != nil {
		return Request{}, err
	}

	// GET carries no body; any Content-Length on a GET is ignored.
	if req.Method == POST {
		want := contentLength(lines[1:])
		if want > 0 {
			body := make([]byte, want)
			if _, err := io.ReadFull(br, body); err != nil {
				return Request{}, fmt.Errorf("reading %d body bytes: %w", want, err)
			}
			req.Body = string(body)
		}
	}

	return req, nil
}

// readHeaderLines accumulates lines until the end-of-headers sentinel (an
// empty line, "\r", or "\r\n") or the stream is exhausted. Line terminators
// are stripped; CRLF and bare LF are both accepted.
func readHeaderLines(br *bufio.Reader) ([]string, error) {
	var lines []string
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}

		switch line {
		case "", "\n", "\r", "\r\n":
			return lines, nil
		}

		lines = append(lines, strings.TrimRight(line, "\r\n"))

		if err != nil { // EOF after a final unterminated line
			return lines, nil
		}
	}
}

// ParseRequestLine splits a request line into exactly three tokens
// (method, uri, protocol) and validates each. Anything other than GET or
// POST over HTTP/1.1 fails fast rather than defaulting.
func ParseRequestLine(line string) (Request, error) {
	tokens := strings.Fields(line)

	switch len(tokens) {
	case 0:
		return Request{}, ErrMissingMethod
	case 1:
		return Request{}, ErrMissingURI
	case 2:
		return Request{}, ErrMissingProtocol
	case 3:
		// method uri protocol
	default:
		return Request{}, fmt.Errorf("%w: extra tokens after protocol", ErrMalformedRequestLine)
	}

	method, uri, protocol := tokens[0], tokens[1], tokens[2]

	if protocol != protocolHTTP11 {
		return Request{}, fmt.Errorf("%w: got %q", ErrUnsupportedProtocol, protocol)
	}

	// The path is matched literally downstream; no percent-decoding or
	// normalization happens here.
	switch method {
	case "GET":
		return Request{Method: GET, Path: uri}, nil
	case "POST":
		return Request{Method: POST, Path: uri}, nil
	default:
		return Request{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
}

// contentLength scans header lines for a Content-Length value. The prefix
// match is case-sensitive; a missing or unparsable value means no body.
func contentLength(lines []string) int {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, contentLengthPrefix) {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(trimmed, contentLengthPrefix))
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return 0
}
