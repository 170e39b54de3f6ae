package ratelimit

import (
	"net/http"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // exact path, prefix ending in "/", or segments with "*" wildcards
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig returns an enabled configuration with the default endpoint tiers.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: ranking, which may call the external scorer
		{Path: "/candidates/*/recommendations", Method: http.MethodPost, Limit: 10, Window: time.Minute, Burst: 2},
		{Path: "/recommend", Method: http.MethodPost, Limit: 30, Window: time.Minute, Burst: 5},

		// Tier 2: writes
		{Path: "/candidates/*/applications", Method: http.MethodPost, Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/candidates/", Method: http.MethodPut, Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/opportunities/", Method: http.MethodPut, Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/applications/", Method: http.MethodPatch, Limit: 100, Window: time.Minute, Burst: 10},

		// Tier 3: reads use the default limit; health is unlimited
	}
}

// IPSet builds a lookup set from a list of client addresses.
func IPSet(ips []string) map[string]bool {
	result := make(map[string]bool, len(ips))
	for _, ip := range ips {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
