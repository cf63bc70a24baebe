// Package utils provides small helpers shared by feature packages.
// It currently decodes conversion arguments, the query-string parameters
// attached to type names such as "object?max_size=10m".
package utils
