package httpd

import (
	"bytes"
	"io"
	"strconv"
)

func statusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 404:
		return "Not Found"
	case 500:
		return "Internal Server Error"
	}
	return "Error"
}

// writeHead sends the status line and header block. Every response closes
// the connection and declares its exact length; ctype may be empty (204).
// extra entries are full "Name: value" lines.
func writeHead(w io.Writer, code int, ctype string, contentLength int64, extra ...string) error {
	var b bytes.Buffer
	b.WriteString("HTTP/1.1 ")
	b.WriteString(strconv.Itoa(code))
	b.WriteByte(' ')
	b.WriteString(statusText(code))
	b.WriteString("\r\nServer: shelf\r\nConnection: close\r\nContent-Length: ")
	b.WriteString(strconv.FormatInt(contentLength, 10))
	b.WriteString("\r\n")
	if ctype != "" {
		b.WriteString("Content-Type: ")
		b.WriteString(ctype)
		b.WriteString("\r\n")
	}
	for _, h := range extra {
		b.WriteString(h)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return sendAll(w, b.Bytes())
}

// respond writes a complete response with an in-memory body.
func respond(w io.Writer, code int, ctype string, body []byte, extra ...string) error {
	if err := writeHead(w, code, ctype, int64(len(body)), extra...); err != nil {
		return err
	}
	return sendAll(w, body)
}

func respondText(w io.Writer, code int, msg string) error {
	return respond(w, code, "text/plain; charset=utf-8", []byte(msg))
}

// sendAll writes all of b, retrying on partial writes, and fails on the
// first write error. Callers abort the response when the peer stops
// accepting data.
func sendAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
