package httpd

import (
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"

	"shelf/internal/config"
)

// startServer runs a Server on a loopback listener over a fresh root.
func startServer(t *testing.T, cfg config.Config) string {
	t.Helper()
	if cfg.Root == "" {
		cfg.Root = t.TempDir()
	}
	if cfg.Realm == "" {
		cfg.Realm = "shelf"
	}
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })
	return ln.Addr().String()
}

type response struct {
	status  int
	headers map[string]string
	body    []byte
}

func (r response) header(name string) string {
	return r.headers[strings.ToLower(name)]
}

// doRaw writes one raw request and reads the full response until the
// server closes the connection.
func doRaw(t *testing.T, addr, raw string) response {
	t.Helper()
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer nc.Close()
	if _, err := nc.Write([]byte(raw)); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := io.ReadAll(nc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(out) == 0 {
		return response{status: 0, headers: map[string]string{}}
	}
	head, body, found := strings.Cut(string(out), "\r\n\r\n")
	if !found {
		t.Fatalf("no header terminator in response %q", out)
	}
	lines := strings.Split(head, "\r\n")
	fields := strings.SplitN(lines[0], " ", 3)
	if len(fields) < 2 {
		t.Fatalf("bad status line %q", lines[0])
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		t.Fatalf("bad status code in %q", lines[0])
	}
	hdrs := map[string]string{}
	for _, line := range lines[1:] {
		if k, v, ok := strings.Cut(line, ":"); ok {
			hdrs[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
		}
	}
	return response{status: code, headers: hdrs, body: []byte(body)}
}

func get(t *testing.T, addr, target string, extra ...string) response {
	raw := "GET " + target + " HTTP/1.1\r\nHost: test\r\n"
	for _, h := range extra {
		raw += h + "\r\n"
	}
	return doRaw(t, addr, raw+"\r\n")
}

func post(t *testing.T, addr, target string, extra ...string) response {
	raw := "POST " + target + " HTTP/1.1\r\nHost: test\r\n"
	for _, h := range extra {
		raw += h + "\r\n"
	}
	return doRaw(t, addr, raw+"\r\n")
}

func put(t *testing.T, addr, target string, body []byte, extra ...string) response {
	raw := fmt.Sprintf("PUT %s HTTP/1.1\r\nHost: test\r\nContent-Length: %d\r\n", target, len(body))
	for _, h := range extra {
		raw += h + "\r\n"
	}
	return doRaw(t, addr, raw+"\r\n"+string(body))
}

func basicHeader(user, pass string) string {
	return "Authorization: Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestMalformedRequestDropsConnection(t *testing.T) {
	addr := startServer(t, config.Config{})
	// No CRLF-terminated request line: the connection closes with no
	// response bytes at all.
	resp := doRaw(t, addr, "GARBAGE WITHOUT LINE ENDING")
	if resp.status != 0 {
		t.Fatalf("expected silent close, got status %d", resp.status)
	}
	resp = doRaw(t, addr, "GET /\r\n\r\n")
	if resp.status != 0 {
		t.Fatalf("two-token request line: expected silent close, got %d", resp.status)
	}
}

func TestEveryResponseCloses(t *testing.T) {
	addr := startServer(t, config.Config{})
	for _, resp := range []response{
		get(t, addr, "/"),
		get(t, addr, "/api/list"),
		get(t, addr, "/nope"),
		post(t, addr, "/api/mkdir?path=/d"),
	} {
		if resp.header("Connection") != "close" {
			t.Errorf("status %d: Connection = %q, want close", resp.status, resp.header("Connection"))
		}
		if resp.header("Content-Length") == "" {
			t.Errorf("status %d: missing Content-Length", resp.status)
		}
	}
}

func TestAuthGate(t *testing.T) {
	addr := startServer(t, config.Config{Username: "alice", Password: "s3cret"})

	for _, tc := range []struct {
		name  string
		extra []string
	}{
		{"no header", nil},
		{"bad base64", []string{"Authorization: Basic %%%%"}},
		{"wrong password", []string{basicHeader("alice", "wrong")}},
		{"wrong user", []string{basicHeader("bob", "s3cret")}},
		{"bearer scheme", []string{"Authorization: Bearer abc"}},
	} {
		resp := get(t, addr, "/api/list", tc.extra...)
		if resp.status != 401 {
			t.Errorf("%s: status = %d, want 401", tc.name, resp.status)
		}
		if got := resp.header("WWW-Authenticate"); !strings.HasPrefix(got, "Basic") {
			t.Errorf("%s: WWW-Authenticate = %q", tc.name, got)
		}
	}

	resp := get(t, addr, "/api/list", basicHeader("alice", "s3cret"))
	if resp.status != 200 {
		t.Fatalf("valid credentials: status = %d, want 200", resp.status)
	}

	// Auth applies uniformly, the UI route included.
	if resp := get(t, addr, "/"); resp.status != 401 {
		t.Errorf("UI without credentials: status = %d, want 401", resp.status)
	}
	if resp := get(t, addr, "/healthz"); resp.status != 401 {
		t.Errorf("healthz without credentials: status = %d, want 401", resp.status)
	}
}

func TestAuthRealm(t *testing.T) {
	addr := startServer(t, config.Config{Username: "a", Password: "b", Realm: "basement"})
	resp := get(t, addr, "/")
	if got := resp.header("WWW-Authenticate"); got != `Basic realm="basement"` {
		t.Errorf("WWW-Authenticate = %q", got)
	}
}
