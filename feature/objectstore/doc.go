// Package objectstore provides an S3 compatible TwoWay dataprovider.
//
// Objects under a bucket prefix are exposed as "object" records keyed by
// their path below the prefix. Content hashes and modification times are
// stored as object user metadata on upload so later passes can compare
// without downloading; objects uploaded by other tools are hashed on first
// read.
package objectstore
