package httpd

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"shelf/internal/fsutil"
)

const (
	ctJSON = "application/json; charset=utf-8"
	ctHTML = "text/html; charset=utf-8"
)

type dirEntry struct {
	Name string `json:"name"`
	Path string `json:"path"` // client-relative, not the filesystem path
	Type string `json:"type"` // "dir" or "file"
	Size int64  `json:"size"` // 0 for directories
}

func (c *conn) handleIndex() int {
	_ = respond(c.rw, 200, ctHTML, c.srv.ui)
	return 200
}

func (c *conn) handleHealthz() int {
	_ = respondText(c.rw, 200, "ok\n")
	return 200
}

func (c *conn) handleList(req *Request) int {
	p, ok := queryParam(req.Target, "path")
	if !ok {
		p = "/"
	}
	dir := fsutil.Resolve(c.srv.cfg.Root, p)
	ents, err := os.ReadDir(dir)
	if err != nil {
		// A missing or non-directory path lists as empty, not as an error.
		_ = respond(c.rw, 200, ctJSON, []byte("[]"))
		return 200
	}
	clientDir := fsutil.Clean(p)
	items := make([]dirEntry, 0, len(ents))
	for _, e := range ents {
		info, err := e.Info()
		if err != nil {
			continue
		}
		it := dirEntry{
			Name: e.Name(),
			Path: fsutil.ClientJoin(clientDir, e.Name()),
			Type: "file",
			Size: info.Size(),
		}
		if e.IsDir() {
			it.Type = "dir"
			it.Size = 0
		}
		items = append(items, it)
	}
	b, err := json.Marshal(items)
	if err != nil {
		_ = respondText(c.rw, 500, "Error")
		return 500
	}
	_ = respond(c.rw, 200, ctJSON, b)
	return 200
}

func (c *conn) handleDownload(req *Request) int {
	p, ok := c.requirePath(req)
	if !ok {
		return 400
	}
	abs := fsutil.Resolve(c.srv.cfg.Root, p)
	st, err := os.Stat(abs)
	if err != nil || st.IsDir() {
		_ = respondText(c.rw, 404, "Not found")
		return 404
	}
	f, err := os.Open(abs)
	if err != nil {
		_ = respondText(c.rw, 500, "Error")
		return 500
	}
	defer f.Close()

	if err := writeHead(c.rw, 200, contentTypeForExt(abs), st.Size()); err != nil {
		return 200
	}
	buf := make([]byte, readBufSize)
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			if sendAll(c.rw, buf[:n]) != nil {
				// Peer stopped accepting data; abort the stream.
				return 200
			}
		}
		if rerr != nil {
			break
		}
	}
	log.Printf("[%s] sent %s (%s)", c.id, filepath.Base(abs), humanize.IBytes(uint64(st.Size())))
	return 200
}

func (c *conn) handleUpload(req *Request) int {
	p, ok := c.requirePath(req)
	if !ok {
		return 400
	}
	if len(req.Body) == 0 {
		_ = respondText(c.rw, 400, "No body")
		return 400
	}
	abs := fsutil.Resolve(c.srv.cfg.Root, p)

	// Best effort; only the file write below decides the outcome.
	_ = os.MkdirAll(filepath.Dir(abs), 0o755)

	f, err := os.OpenFile(abs, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		_ = respondText(c.rw, 500, "Failed")
		return 500
	}
	n, werr := f.Write(req.Body)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil || n != len(req.Body) {
		_ = respondText(c.rw, 500, "Write failed")
		return 500
	}
	log.Printf("[%s] received %s (%s)", c.id, filepath.Base(abs), humanize.IBytes(uint64(len(req.Body))))
	_ = respondText(c.rw, 201, "Created")
	return 201
}

func (c *conn) handleMkdir(req *Request) int {
	p, ok := c.requirePath(req)
	if !ok {
		return 400
	}
	abs := fsutil.Resolve(c.srv.cfg.Root, p)
	// Idempotent: pre-existing segments are not an error, and failures
	// surface on the next operation that actually needs the directory.
	_ = os.MkdirAll(abs, 0o755)
	_ = respondText(c.rw, 201, "Created")
	return 201
}

func (c *conn) handleDelete(req *Request) int {
	p, ok := c.requirePath(req)
	if !ok {
		return 400
	}
	abs := fsutil.Resolve(c.srv.cfg.Root, p)
	if _, err := os.Lstat(abs); err != nil {
		_ = respondText(c.rw, 404, "Not found")
		return 404
	}
	// Files are unlinked; directories are removed only when empty.
	if err := os.Remove(abs); err != nil {
		_ = respondText(c.rw, 500, "Error")
		return 500
	}
	_ = writeHead(c.rw, 204, "", 0)
	return 204
}

func contentTypeForExt(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return "text/html"
	case ".txt":
		return "text/plain"
	case ".json":
		return "application/json"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	}
	return "application/octet-stream"
}
