package server

import (
	"fmt"
	"strconv"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// BodyLimitBytes caps request bodies.
	BodyLimitBytes int `mapstructure:"body_limit_bytes" default:"1048576"`
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Validate checks the port is usable.
func (c Config) Validate() error {
	p, err := strconv.Atoi(c.Port)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid server port %q", c.Port)
	}
	return nil
}
