package response

import (
	"bufio"
	"bytes"
	"io"
	"net/textproto"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readWire parses a serialized response back into its parts so tests check
// the wire contract rather than string internals.
func readWire(t *testing.T, raw []byte) (statusLine string, headers textproto.MIMEHeader, body string) {
	t.Helper()

	r := textproto.NewReader(bufio.NewReader(bytes.NewReader(raw)))
	statusLine, err := r.ReadLine()
	require.NoError(t, err)

	headers, err = r.ReadMIMEHeader()
	require.NoError(t, err)

	rest, err := io.ReadAll(r.R)
	require.NoError(t, err)
	return statusLine, headers, string(rest)
}

func TestOkRoundTrip(t *testing.T) {
	status, headers, body := readWire(t, Ok("hello").Bytes())

	assert.Equal(t, "HTTP/1.1 200 OK", status)
	assert.Equal(t, "text/html", headers.Get("Content-Type"))
	assert.Equal(t, strconv.Itoa(len("hello")), headers.Get("Content-Length"))
	assert.Equal(t, "hello", body)
}

func TestNotFoundEmitsFixedPage(t *testing.T) {
	// The carried message never reaches the wire; the embedded page wins.
	status, headers, body := readWire(t, NotFound("route /missing had no handler").Bytes())

	assert.Equal(t, "HTTP/1.1 404 Not Found", status)
	assert.Equal(t, notFoundPage, body)
	assert.Equal(t, strconv.Itoa(len(notFoundPage)), headers.Get("Content-Length"))
	assert.NotContains(t, body, "/missing")

	// Two 404s with different messages serialize identically.
	assert.Equal(t, NotFound("a").Bytes(), NotFound("b").Bytes())
	// The message stays available for logging.
	assert.Equal(t, "a", NotFound("a").Message())
}

func TestInternalServerErrorIsEmpty(t *testing.T) {
	status, headers, body := readWire(t, InternalServerError().Bytes())

	assert.Equal(t, "HTTP/1.1 500 Internal Server Error", status)
	assert.Equal(t, "0", headers.Get("Content-Length"))
	assert.Empty(t, body)
}
