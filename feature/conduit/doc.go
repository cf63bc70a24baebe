// Package conduit wires named pairs of endpoints to the reconciler.
//
// Conduits are declared in a YAML file:
//
//	conduits:
//	  - name: photos
//	    source: {type: folder, path: /srv/photos}
//	    sink:   {type: s3, bucket: backup, prefix: photos, in_type: "object?max_size=50m"}
//	    two_way: true
//	    autosync: true
//	    policy: {conflict: ask, deleted: replace}
//
// The Service runs passes (one at a time per conduit), keeps the last result
// of each conduit and exposes them over HTTP. The Autosync watcher triggers a
// debounced pass when a watched folder endpoint changes.
package conduit
