// Package integrity reports whether conduits can run at all.
//
// Two checks are provided. The schema check compares the live mapping table
// with the columns, types and primary key declared on mapping.Mapping. The
// endpoint check asks every conduit endpoint that supports it whether its
// folder or bucket exists, and with fix=true creates the missing ones.
// Memory endpoints have nothing to check and report "unchecked".
//
// Routes: GET /integrity, GET /integrity/schema, GET /integrity/endpoints.
// The integrity command runs the same checks from the CLI.
package integrity
