// Package config holds the runtime configuration shared by every command.
package config

import (
	"net"
	"path/filepath"
	"strconv"
)

const (
	// DefaultRoot is the project directory served and staged.
	DefaultRoot = "."

	// DefaultHost is the interface the server binds to.
	DefaultHost = "localhost"

	// DefaultPort is the default HTTP server port.
	DefaultPort = 8000

	// DefaultDist is the staging output directory, relative to the root.
	DefaultDist = "dist"

	// DefaultSmokePort is the alternate port used by the live smoke test.
	DefaultSmokePort = 8001

	// DefaultDatabaseURL is empty; build history is disabled unless provided.
	DefaultDatabaseURL = ""
)

// Config is built once at startup and passed to each component.
type Config struct {
	Root        string
	Host        string
	Port        int
	Dist        string
	DatabaseURL string
}

// Default returns a Config populated with the default values.
func Default() Config {
	return Config{
		Root:        DefaultRoot,
		Host:        DefaultHost,
		Port:        DefaultPort,
		Dist:        DefaultDist,
		DatabaseURL: DefaultDatabaseURL,
	}
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL returns the base URL of a server started with this config.
func (c Config) URL() string {
	return "http://" + c.Addr()
}

// DistDir resolves the staging directory. Relative dist paths live under Root.
func (c Config) DistDir() string {
	if filepath.IsAbs(c.Dist) {
		return c.Dist
	}
	return filepath.Join(c.Root, c.Dist)
}

// HistoryEnabled reports whether builds are recorded in the database.
func (c Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}
