package server

import "net"

// Config holds the HTTP listener settings of the start command.
type Config struct {
	// Host is the interface to bind, empty for all interfaces.
	Host string `mapstructure:"host" default:""`
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey protects the conduit API. An empty key leaves the API open.
	ApiKey string `mapstructure:"api_key" default:""`
}

// Address returns the host:port to listen on, port 8080 when unset.
func (c Config) Address() string {
	port := c.Port
	if port == "" {
		port = "8080"
	}
	return net.JoinHostPort(c.Host, port)
}

// AuthEnabled reports whether requests must carry the API key.
func (c Config) AuthEnabled() bool {
	return c.ApiKey != ""
}
