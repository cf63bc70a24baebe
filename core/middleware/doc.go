// Package middleware groups the fiber middleware mounted by the start command.
//
// rayid tags each request with an id (X-Ray-ID header, generated when
// absent). auth rejects requests without the configured X-API-Key, except
// for public prefixes such as /swagger.
package middleware
