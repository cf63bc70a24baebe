// Package storage connects s3 endpoints to an S3-compatible object store.
//
// Client is the narrow slice of the MinIO API the object store endpoint
// needs: bucket checks, listing, stat, get, put and remove. NewClient builds
// the real client from Config; core/storage/mocks holds a testify mock with
// helpers for listings and missing keys.
//
// The endpoint scheme decides TLS:
//
//	storage:
//	  endpoint: https://s3.eu-west-1.amazonaws.com   # TLS
//	  endpoint: minio:9000                           # plain unless use_ssl
//
// IsNotFound recognises missing keys and buckets in S3 error responses.
package storage
