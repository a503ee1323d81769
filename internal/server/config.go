package server

import (
	"log"
	"time"
)

type Config struct {
	Addr string
	// StaticDir is the root for GET paths that match no route.
	StaticDir string
	// DefaultDocument replaces a request path of exactly "/".
	DefaultDocument string
	// UpdateNamePath is the only path that accepts POST.
	UpdateNamePath string
	// MaxConcurrent bounds how many connections are handled at once. 1
	// handles each connection to completion before accepting the next.
	MaxConcurrent int
	// ReadTimeout is applied to every connection. Zero waits forever.
	ReadTimeout time.Duration
	// MaxBodyBytes caps the Content-Length accepted on POST.
	MaxBodyBytes int
	Logger       *log.Logger
}

func DefaultConfig() Config {
	return Config{
		Addr:            ":35000",
		StaticDir:       "public",
		DefaultDocument: "/index.html",
		UpdateNamePath:  "/App/updateName",
		MaxConcurrent:   1,
		MaxBodyBytes:    1 << 20,
		Logger:          log.Default(),
	}
}

// withDefaults fills every zero field from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.StaticDir == "" {
		c.StaticDir = d.StaticDir
	}
	if c.DefaultDocument == "" {
		c.DefaultDocument = d.DefaultDocument
	}
	if c.UpdateNamePath == "" {
		c.UpdateNamePath = d.UpdateNamePath
	}
	if c.MaxConcurrent < 1 {
		c.MaxConcurrent = d.MaxConcurrent
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	return c
}
