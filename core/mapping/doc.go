// Package mapping persists the correlation between records on two providers.
//
// A Mapping row says that the record sourceUID on provider sourceProviderUID
// is the same real-world item as sinkUID on provider sinkProviderUID. At most
// one row exists per (sourceProviderUID, sourceUID, sinkProviderUID); saving
// replaces the row in place.
//
// Lookups accept either orientation of a provider pair and return mappings
// oriented as requested, so a two-way pass can ask from either side.
//
// The store is the only state that survives between passes. Writes are
// applied one item at a time so an interrupted pass loses at most the
// correlations of items it had not finished.
package mapping
