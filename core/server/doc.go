// Package server holds the HTTP server configuration.
//
// The Config struct defines the HTTP port and the API key that protects the
// conduit API. It is embedded by core/config and consumed by the start command.
package server
