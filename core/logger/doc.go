// Package logger builds the zap logger every component receives.
//
// Level "debug" selects zap's development config, anything else the
// production one. Format picks json or console encoding. When File is set,
// output is teed into a lumberjack-rotated file next to stdout:
//
//	log:
//	  level: info
//	  file: /var/log/conduit-sync.log
//	  max_size_mb: 50
//
// WithRayID tags a logger with the ray id the rayid middleware stored on a
// request, so every line of one HTTP call can be correlated.
package logger
