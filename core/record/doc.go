// Package record defines the unit of synchronized content and its identity.
//
// A DataType is whatever a dataprovider produces or consumes: a file, an
// object, a contact. Every DataType carries a local UID, an optional
// modification time, a provider-defined content hash, an optional open URI,
// an ordered set of tags and a change type.
//
// A Rid (record identifier) is the immutable (uid, mtime, hash) triple that
// providers return from Get, Put and Delete. It is the only identity the
// reconciler keeps between passes.
//
// # Comparison
//
// Compare decides which of two records is newer:
//
//	cmp := record.Compare(candidate, existing, record.Baseline{
//	    Known:     true,
//	    Candidate: mapping.SourceRid(),
//	    Existing:  mapping.SinkRid(),
//	})
//
// Identical Rids are equal. When either side lacks an mtime the content hashes
// are checked against the Rids recorded at the last successful transfer; a
// record whose hash still matches its recorded hash has not changed, so the
// other record is newer. Otherwise the later mtime wins.
package record
