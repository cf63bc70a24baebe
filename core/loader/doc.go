// Package loader mounts HTTP features on the fiber app.
//
// A feature reports its name, whether it is enabled, and registers its
// routes in Load. The start command registers the conduit and integrity
// features with a Manager and calls LoadAll once; disabled features are
// logged and skipped, and the first Load error stops startup.
package loader
