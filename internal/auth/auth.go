package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"shelf/internal/config"
)

// Authorize checks the Authorization header value against the configured
// credential pair. With auth disabled it always allows. The scheme is
// HTTP Basic only; bearer tokens or anything else are rejected.
func Authorize(cfg config.Config, authorization string) bool {
	if !cfg.AuthEnabled() {
		return true
	}
	user, pass, ok := ParseBasic(authorization)
	if !ok {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(user), []byte(cfg.Username)) != 1 {
		// Burn a comparison anyway so unknown users cost the same.
		verifyPassword(cfg, pass)
		return false
	}
	return verifyPassword(cfg, pass)
}

func verifyPassword(cfg config.Config, pass string) bool {
	if cfg.PasswordBcrypt != "" {
		return bcrypt.CompareHashAndPassword([]byte(cfg.PasswordBcrypt), []byte(pass)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.Password)) == 1
}

// ParseBasic splits a "Basic <base64(user:pass)>" header value. The
// scheme match is case-insensitive; the payload must decode and contain
// a ':' separator.
func ParseBasic(v string) (user, pass string, ok bool) {
	v = strings.TrimSpace(v)
	const prefix = "basic "
	if len(v) < len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(v[len(prefix):]))
	if err != nil {
		return "", "", false
	}
	s := string(raw)
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return "", "", false
	}
	u, p := s[:i], s[i+1:]
	if strings.ContainsRune(u, '\x00') || strings.ContainsRune(p, '\x00') {
		return "", "", false
	}
	return u, p, true
}
