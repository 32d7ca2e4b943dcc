package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nulldatamap/xthevent/internal/flagx"
	"github.com/nulldatamap/xthevent/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// Absent keys leave the corresponding Config field untouched.
type JsonConfig struct {
	EndpointAddrHTTP    string          `json:"endpoint_addr_http"`
	EndpointAddrGRPC    string          `json:"endpoint_addr_grpc"`
	DatabaseDSN         string          `json:"database_dsn"`
	SessionTTL          *timex.Duration `json:"session_ttl"`
	RegistrationTTL     *timex.Duration `json:"registration_ttl"`
	StoreTimeout        *timex.Duration `json:"store_timeout"`
	InitDB              *bool           `json:"init_db"`
	LogLevel            string          `json:"log_level"`
	HealthCheckInterval *timex.Duration `json:"health_check_interval"`
	AuthRatePerMinute   *int            `json:"auth_rate_per_minute"`
	AuthBurst           *int            `json:"auth_burst"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag into config. Without the flag nothing is loaded.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", jsonConfigFile, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.EndpointAddrGRPC != "" {
		config.EndpointAddrGRPC = c.EndpointAddrGRPC
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.RegistrationTTL != nil {
		config.RegistrationTTL = c.RegistrationTTL.Duration
	}
	if c.StoreTimeout != nil {
		config.StoreTimeout = c.StoreTimeout.Duration
	}
	if c.InitDB != nil {
		config.InitDB = *c.InitDB
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
	if c.HealthCheckInterval != nil {
		config.HealthCheckInterval = c.HealthCheckInterval.Duration
	}
	if c.AuthRatePerMinute != nil {
		config.AuthRatePerMinute = *c.AuthRatePerMinute
	}
	if c.AuthBurst != nil {
		config.AuthBurst = *c.AuthBurst
	}
}
