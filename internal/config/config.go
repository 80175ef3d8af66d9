package config

// Config is built once in main and passed read-only into every component.
// Connection handlers never mutate it, so no locking is needed.
type Config struct {
	// Addr is the listen address, e.g. "0.0.0.0:8080".
	Addr string

	// Root is the confined share root (absolute). No client-visible path
	// may resolve outside it.
	Root string

	// Username/Password enable HTTP Basic auth when both are set.
	// PasswordBcrypt, if set, takes precedence over Password and holds a
	// bcrypt hash (see the passwd subcommand).
	Username       string
	Password       string
	PasswordBcrypt string

	// Realm is sent in the WWW-Authenticate challenge.
	Realm string

	// MaxConns caps concurrently served connections. 0 means unlimited.
	MaxConns int
}

// AuthEnabled reports whether the Basic auth gate is active.
func (c Config) AuthEnabled() bool {
	return c.Username != "" && (c.Password != "" || c.PasswordBcrypt != "")
}
