package record

import "time"

// ChangeType is the change state a provider reports for a record.
type ChangeType int

const (
	// Unmodified means the record has not changed since the last pass.
	Unmodified ChangeType = iota
	// Added means the record is new on its provider.
	Added
	// Modified means the record changed since the last pass.
	Modified
	// Deleted means the record no longer exists on its provider.
	Deleted
)

func (c ChangeType) String() string {
	switch c {
	case Unmodified:
		return "unmodified"
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// DataType is the unit of synchronized content.
// Concrete types embed Base and implement Type.
type DataType interface {
	// Type returns the base type name used by the converter graph (e.g. "file").
	Type() string
	UID() string
	SetUID(uid string)
	Mtime() time.Time
	Hash() string
	OpenURI() string
	Tags() []string
	ChangeType() ChangeType
	Rid() Rid
}

// Base implements the identity part of DataType.
type Base struct {
	uid     string
	mtime   time.Time
	hash    string
	openURI string
	tags    []string
	change  ChangeType
}

func (b *Base) UID() string       { return b.uid }
func (b *Base) SetUID(uid string) { b.uid = uid }
func (b *Base) Mtime() time.Time  { return b.mtime }
func (b *Base) Hash() string      { return b.hash }
func (b *Base) OpenURI() string   { return b.openURI }

// SetMtime stores t normalised to MtimePrecision. A zero t clears the mtime.
func (b *Base) SetMtime(t time.Time) { b.mtime = NormalizeMtime(t) }

func (b *Base) SetHash(h string)       { b.hash = h }
func (b *Base) SetOpenURI(uri string)  { b.openURI = uri }
func (b *Base) ChangeType() ChangeType { return b.change }

func (b *Base) SetChangeType(c ChangeType) { b.change = c }

// Tags returns a copy of the tags in insertion order.
func (b *Base) Tags() []string {
	out := make([]string, len(b.tags))
	copy(out, b.tags)
	return out
}

// AddTag appends tag unless it is already present.
func (b *Base) AddTag(tag string) {
	for _, t := range b.tags {
		if t == tag {
			return
		}
	}
	b.tags = append(b.tags, tag)
}

// Rid returns the current identity of the record.
func (b *Base) Rid() Rid {
	return Rid{UID: b.uid, Mtime: b.mtime, Hash: b.hash}
}

// CopyIdentity copies mtime, hash, open URI and tags from src.
// The UID is left alone because it is local to each provider.
func (b *Base) CopyIdentity(src DataType) {
	b.SetMtime(src.Mtime())
	b.hash = src.Hash()
	b.openURI = src.OpenURI()
	b.tags = src.Tags()
}
