package request

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestLine(t *testing.T) {
	// Test: happy path GET
	req, err := ParseRequestLine("GET / HTTP/1.1")
	require.NoError(t, err)
	assert.Equal(t, Request{Method: GET, Path: "/"}, req)

	// Test: happy path POST (no body attached yet)
	req, err = ParseRequestLine("POST / HTTP/1.1")
	require.NoError(t, err)
	assert.Equal(t, Request{Method: POST, Path: "/"}, req)

	// Test: nested path matched literally
	req, err = ParseRequestLine("GET /foo/bar HTTP/1.1")
	require.NoError(t, err)
	assert.Equal(t, "/foo/bar", req.Path)

	// Test: empty line => no method
	_, err = ParseRequestLine("")
	require.ErrorIs(t, err, ErrMissingMethod)

	// Test: method only => no uri
	_, err = ParseRequestLine("GET")
	require.ErrorIs(t, err, ErrMissingURI)

	// Test: method and uri => no protocol
	_, err = ParseRequestLine("GET /")
	require.ErrorIs(t, err, ErrMissingProtocol)

	// Test: extra tokens => malformed
	_, err = ParseRequestLine("GET / HTTP/1.1 junk")
	require.ErrorIs(t, err, ErrMalformedRequestLine)

	// Test: only HTTP/1.1 accepted
	_, err = ParseRequestLine("GET / HTTP/1.0")
	require.ErrorIs(t, err, ErrUnsupportedProtocol)

	// Test: unknown verb rejected, no defaulting
	_, err = ParseRequestLine("FOO / HTTP/1.1")
	require.ErrorIs(t, err, ErrUnsupportedMethod)

	// Test: lowercase verb is not a supported method
	_, err = ParseRequestLine("get / HTTP/1.1")
	require.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestReadRequest(t *testing.T) {
	// Test: GET with extra headers, CRLF terminated
	req, err := ReadRequest(strings.NewReader("GET /hello HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	require.NoError(t, err)
	assert.Equal(t, GET, req.Method)
	assert.Equal(t, "/hello", req.Path)
	assert.Empty(t, req.Body)

	// Test: bare-LF lines accepted
	req, err = ReadRequest(strings.NewReader("GET /hello HTTP/1.1\n\n"))
	require.NoError(t, err)
	assert.Equal(t, "/hello", req.Path)

	// Test: POST with Content-Length and exact body
	raw := "POST /submit HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"
	req, err = ReadRequest(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, POST, req.Method)
	assert.Equal(t, "/submit", req.Path)
	assert.Equal(t, "hello", req.Body)

	// Test: POST without Content-Length => empty body
	req, err = ReadRequest(strings.NewReader("POST /submit HTTP/1.1\r\n\r\nignored"))
	require.NoError(t, err)
	assert.Empty(t, req.Body)

	// Test: unparsable Content-Length defaults to no body
	req, err = ReadRequest(strings.NewReader("POST /submit HTTP/1.1\r\nContent-Length: nope\r\n\r\nhello"))
	require.NoError(t, err)
	assert.Empty(t, req.Body)

	// Test: Content-Length on a GET is ignored
	req, err = ReadRequest(strings.NewReader("GET / HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"))
	require.NoError(t, err)
	assert.Empty(t, req.Body)

	// Test: declared length longer than the stream is an I/O failure
	_, err = ReadRequest(strings.NewReader("POST /submit HTTP/1.1\r\nContent-Length: 50\r\n\r\nshort"))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrMalformedRequestLine)

	// Test: immediate EOF => missing method
	_, err = ReadRequest(strings.NewReader(""))
	require.ErrorIs(t, err, ErrMissingMethod)

	// Test: protocol typo fails even with well-formed headers
	_, err = ReadRequest(strings.NewReader("GET / HTP/1.1\r\n\r\n"))
	require.ErrorIs(t, err, ErrUnsupportedProtocol)
}

func TestKeyIgnoresBody(t *testing.T) {
	a := Request{Method: POST, Path: "/x", Body: "a"}
	b := Request{Method: POST, Path: "/x", Body: "b"}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, Post("/x"), a.Key())

	// Method participates in identity
	assert.NotEqual(t, Get("/x"), a.Key())
	// So does the path, matched literally
	assert.NotEqual(t, Post("/y"), a.Key())
}
