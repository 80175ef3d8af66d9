package httpd

import (
	"strings"

	"shelf/internal/fsutil"
)

// targetPath strips the query string from a raw request target.
func targetPath(target string) string {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i]
	}
	return target
}

// queryParam extracts the named parameter from the raw target's query
// string. The value runs to the next '&' or end of string and is
// percent-decoded.
func queryParam(target, key string) (string, bool) {
	i := strings.IndexByte(target, '?')
	if i < 0 {
		return "", false
	}
	for _, kv := range strings.Split(target[i+1:], "&") {
		k, v, _ := strings.Cut(kv, "=")
		if k == key {
			return fsutil.DecodePercent(v), true
		}
	}
	return "", false
}

// route dispatches one authorized request to its handler and returns the
// response status for the access log. Methods match case-insensitively;
// paths match by prefix against a fixed table, anything else is 404.
func (c *conn) route(req *Request) int {
	method := strings.ToUpper(req.Method)
	path := targetPath(req.Target)
	switch {
	case method == "GET" && path == "/":
		return c.handleIndex()
	case method == "GET" && path == "/healthz":
		return c.handleHealthz()
	case method == "GET" && strings.HasPrefix(path, "/api/list"):
		return c.handleList(req)
	case method == "GET" && strings.HasPrefix(path, "/api/download"):
		return c.handleDownload(req)
	case method == "GET" && strings.HasPrefix(path, "/api/thumb"):
		return c.handleThumb(req)
	case method == "PUT" && strings.HasPrefix(path, "/api/upload"):
		return c.handleUpload(req)
	case method == "POST" && strings.HasPrefix(path, "/api/mkdir"):
		return c.handleMkdir(req)
	case method == "POST" && strings.HasPrefix(path, "/api/delete"):
		return c.handleDelete(req)
	}
	_ = respondText(c.rw, 404, "Not Found")
	return 404
}

// requirePath fetches the path query parameter for handlers that cannot
// operate without one.
func (c *conn) requirePath(req *Request) (string, bool) {
	p, ok := queryParam(req.Target, "path")
	if !ok {
		_ = respondText(c.rw, 400, "Bad Request")
		return "", false
	}
	return p, true
}
