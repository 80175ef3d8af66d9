package httpd

import (
	"embed"
	"errors"
	"log"
	"net"

	"github.com/google/uuid"
	"golang.org/x/net/netutil"

	"shelf/internal/auth"
	"shelf/internal/config"
)

//go:embed web/index.html
var webFS embed.FS

// Server accepts connections and runs each through the
// parse -> auth -> route -> respond pipeline on its own goroutine.
type Server struct {
	cfg config.Config
	ui  []byte
}

func New(cfg config.Config) (*Server, error) {
	ui, err := webFS.ReadFile("web/index.html")
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, ui: ui}, nil
}

func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve runs the accept loop until the listener is closed. Each accepted
// connection is handed off fire-and-forget; the loop never waits on a
// handler.
func (s *Server) Serve(ln net.Listener) error {
	if s.cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConns)
	}
	defer ln.Close()
	for {
		nc, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("accept: %v", err)
			continue
		}
		go s.handleConn(nc)
	}
}

// conn is the per-connection state. It is owned by exactly one goroutine
// for the lifetime of the connection.
type conn struct {
	srv *Server
	rw  net.Conn
	id  string
}

func (s *Server) handleConn(nc net.Conn) {
	defer nc.Close()
	c := &conn{srv: s, rw: nc, id: uuid.NewString()[:8]}

	req, err := ParseRequest(nc)
	if err != nil {
		// Nothing well-formed to answer; close without a response.
		log.Printf("[%s] %s: dropped: %v", c.id, nc.RemoteAddr(), err)
		return
	}

	if !auth.Authorize(s.cfg, req.Header("Authorization")) {
		challenge := `WWW-Authenticate: Basic realm="` + s.cfg.Realm + `"`
		_ = respond(nc, 401, "text/plain; charset=utf-8", []byte("Unauthorized\n"), challenge)
		log.Printf("[%s] %s %s %s -> 401", c.id, nc.RemoteAddr(), req.Method, req.Target)
		return
	}

	status := c.route(req)
	log.Printf("[%s] %s %s %s -> %d", c.id, nc.RemoteAddr(), req.Method, req.Target, status)
}
