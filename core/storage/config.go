package storage

import (
	"strings"
	"time"
)

// Config holds the connection settings of the object store used by s3 endpoints.
type Config struct {
	// Endpoint is host:port, optionally prefixed with http:// or https://.
	// An empty endpoint leaves s3 endpoints not configured.
	Endpoint  string `mapstructure:"endpoint" default:"localhost:9000"`
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL forces TLS for endpoints given without a scheme.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket is the default bucket for s3 endpoints that do not name one.
	Bucket string `mapstructure:"bucket" default:"conduit"`
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds bounds dialing and waiting for response headers.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// Host returns the endpoint without scheme and whether TLS is used.
// An https:// scheme wins over UseSSL, http:// disables it.
func (c Config) Host() (string, bool) {
	ep := strings.TrimSpace(c.Endpoint)
	switch {
	case strings.HasPrefix(ep, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(ep, "https://"), "/"), true
	case strings.HasPrefix(ep, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(ep, "http://"), "/"), false
	default:
		return strings.TrimSuffix(ep, "/"), c.UseSSL
	}
}

// Timeout returns TimeoutSeconds as a duration, 30s when unset.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
