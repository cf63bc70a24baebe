// Package folder implements a TwoWay dataprovider over a local directory tree.
//
// Records are regular files identified by their slash separated path relative
// to the folder root. Listings come from the concurrent scan engine, so large
// trees are enumerated off the reconciliation goroutine and bounded by the
// shared scan manager. Content hashes are SHA-256 and are cached per path,
// size and mtime between passes.
//
// Writes go to a temporary file in the target directory and are renamed into
// place. The incoming mtime is applied to the written file unless the record
// was converted with keep_mtime=false, which keeps comparisons stable across
// passes.
//
// Conversions declared by the provider:
//
//	"file,file"    applies keep_mtime to a folder to folder copy
//	"object,file"  wraps object store content as a file
package folder
