// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"net"
	"os"
	"time"
)

const (
	defaultHTTPHost = "localhost"
	defaultHTTPPort = "491"
)

// Config holds runtime settings for the xthevent server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the public HTTP API.
//   - EndpointAddrGRPC: bind address for the gRPC health endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx).
//   - SessionTTL: absolute lifetime of a session token.
//   - RegistrationTTL: lifetime of a pending registration token.
//   - StoreTimeout: upper bound for a single store operation.
//   - InitDB: apply embedded migrations at start-up.
//   - LogLevel: debug, info, warn or error.
//   - HealthCheckInterval: how often the health watcher pings the database.
//   - AuthRatePerMinute / AuthBurst: per-client limit on /login and /register.
type Config struct {
	EndpointAddrHTTP    string
	EndpointAddrGRPC    string
	DatabaseDSN         string
	SessionTTL          time.Duration
	RegistrationTTL     time.Duration
	StoreTimeout        time.Duration
	InitDB              bool
	LogLevel            string
	HealthCheckInterval time.Duration
	AuthRatePerMinute   int
	AuthBurst           int
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = net.JoinHostPort(defaultHTTPHost, defaultHTTPPort)
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = "postgres://postgres@localhost/xth?sslmode=disable"
	c.SessionTTL = 24 * time.Hour
	c.RegistrationTTL = 48 * time.Hour
	c.StoreTimeout = 5 * time.Second
	c.InitDB = false
	c.LogLevel = "info"
	c.HealthCheckInterval = 10 * time.Second
	c.AuthRatePerMinute = 20
	c.AuthBurst = 5
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, os.Args[1:]); err != nil {
		return nil, err
	}
	return cfg, nil
}
