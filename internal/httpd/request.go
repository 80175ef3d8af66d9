package httpd

import (
	"errors"
	"io"
	"strconv"
	"strings"
)

// readBufSize bounds the initial read. Request line and headers must fit
// in it; only a declared body may extend past it.
const readBufSize = 8192

// ErrMalformed means no usable request line arrived. There is nothing
// well-formed to answer, so the connection is dropped without a response.
var ErrMalformed = errors.New("malformed request")

// Request is one parsed HTTP/1.1 request. It is owned by the goroutine
// handling the connection and discarded when the connection closes.
type Request struct {
	Method string
	Target string // raw request target, query string included
	Proto  string // informational only

	// headers maps lowercased names to values, first occurrence wins.
	headers map[string]string

	Body []byte
}

// Header returns the value for name (case-insensitive), or "".
func (r *Request) Header(name string) string {
	return r.headers[strings.ToLower(name)]
}

// ContentLength returns the declared body length, or 0.
func (r *Request) ContentLength() int {
	n, err := strconv.Atoi(strings.TrimSpace(r.Header("Content-Length")))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParseRequest reads one request from conn. It performs a single bounded
// read for the request line, headers and any body prefix, then reads
// further only to complete a body declared via Content-Length.
//
// Simplifications, by contract with the rest of this server: if the
// blank-line terminator is not inside the initial read, the request is
// treated as having no headers and no body (slow-header and pipelined
// clients are unsupported), and a body cut short by the peer is kept
// truncated rather than failing the request.
func ParseRequest(conn io.Reader) (*Request, error) {
	buf := make([]byte, readBufSize)
	n, err := conn.Read(buf)
	if n <= 0 {
		if err == nil {
			err = io.EOF
		}
		return nil, err
	}
	raw := string(buf[:n])

	lineEnd := strings.Index(raw, "\r\n")
	if lineEnd < 0 {
		return nil, ErrMalformed
	}
	fields := strings.Fields(raw[:lineEnd])
	if len(fields) != 3 {
		return nil, ErrMalformed
	}
	req := &Request{
		Method:  fields[0],
		Target:  fields[1],
		Proto:   fields[2],
		headers: map[string]string{},
	}

	rest := raw[lineEnd+2:]
	hdrEnd := strings.Index(rest, "\r\n\r\n")
	if hdrEnd < 0 {
		return req, nil
	}
	parseHeaderBlock(req.headers, rest[:hdrEnd])

	want := req.ContentLength()
	if want == 0 {
		return req, nil
	}
	body := make([]byte, want)
	got := copy(body, rest[hdrEnd+4:])
	for got < want {
		nr, rerr := conn.Read(body[got:])
		if nr > 0 {
			got += nr
		}
		if rerr != nil || nr <= 0 {
			break
		}
	}
	req.Body = body[:got]
	return req, nil
}

func parseHeaderBlock(dst map[string]string, block string) {
	for _, line := range strings.Split(block, "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := dst[key]; dup {
			continue
		}
		dst[key] = strings.TrimSpace(value)
	}
}
