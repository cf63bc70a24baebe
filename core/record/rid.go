package record

import (
	"fmt"
	"time"
)

// MtimePrecision is the resolution mtimes are normalised to.
// Stores such as MySQL DATETIME(3) keep milliseconds only.
const MtimePrecision = time.Millisecond

// Rid identifies one version of one record on one provider.
// The zero Mtime means the provider does not track modification times.
type Rid struct {
	UID   string    `json:"uid"`
	Mtime time.Time `json:"mtime,omitempty"`
	Hash  string    `json:"hash,omitempty"`
}

// NewRid builds a Rid with a normalised mtime.
func NewRid(uid string, mtime time.Time, hash string) Rid {
	return Rid{UID: uid, Mtime: NormalizeMtime(mtime), Hash: hash}
}

// NormalizeMtime truncates t to MtimePrecision and converts it to UTC.
func NormalizeMtime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.Truncate(MtimePrecision).UTC()
}

// HasMtime reports whether the Rid carries a modification time.
func (r Rid) HasMtime() bool {
	return !r.Mtime.IsZero()
}

// Equal reports whether both Rids name the same version of the same record.
func (r Rid) Equal(o Rid) bool {
	return r.UID == o.UID && r.SameVersion(o)
}

// SameVersion compares mtime and hash, ignoring the UID.
func (r Rid) SameVersion(o Rid) bool {
	return r.Hash == o.Hash && NormalizeMtime(r.Mtime).Equal(NormalizeMtime(o.Mtime))
}

// IsZero reports whether r is the empty Rid.
func (r Rid) IsZero() bool {
	return r.UID == "" && r.Mtime.IsZero() && r.Hash == ""
}

func (r Rid) String() string {
	if r.HasMtime() {
		return fmt.Sprintf("%s@%s#%s", r.UID, r.Mtime.Format(time.RFC3339Nano), r.Hash)
	}
	return fmt.Sprintf("%s#%s", r.UID, r.Hash)
}
