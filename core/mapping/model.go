package mapping

import (
	"time"

	"conduit-sync/core/record"
)

// Mapping is one persisted correlation row.
type Mapping struct {
	OID               string     `gorm:"column:oid;primaryKey;size:36" json:"oid"`
	SourceProviderUID string     `gorm:"column:source_provider_uid;size:255;not null;index:idx_mappings_pair,priority:1" json:"source_provider_uid"`
	SourceUID         string     `gorm:"column:source_uid;size:1024;not null" json:"source_uid"`
	SourceMtime       *time.Time `gorm:"column:source_mtime" json:"source_mtime,omitempty"`
	SourceHash        string     `gorm:"column:source_hash;size:255" json:"source_hash"`
	SinkProviderUID   string     `gorm:"column:sink_provider_uid;size:255;not null;index:idx_mappings_pair,priority:2" json:"sink_provider_uid"`
	SinkUID           string     `gorm:"column:sink_uid;size:1024;not null" json:"sink_uid"`
	SinkMtime         *time.Time `gorm:"column:sink_mtime" json:"sink_mtime,omitempty"`
	SinkHash          string     `gorm:"column:sink_hash;size:255" json:"sink_hash"`
}

// TableName keeps the table name stable across GORM naming strategies.
func (Mapping) TableName() string {
	return "mappings"
}

// Columns lists the persisted schema.
var Columns = []string{
	"oid",
	"source_provider_uid", "source_uid", "source_mtime", "source_hash",
	"sink_provider_uid", "sink_uid", "sink_mtime", "sink_hash",
}

// New correlates two records. The OID is assigned when the mapping is saved.
func New(sourceProvider string, source record.Rid, sinkProvider string, sink record.Rid) Mapping {
	m := Mapping{
		SourceProviderUID: sourceProvider,
		SinkProviderUID:   sinkProvider,
	}
	m.SetSourceRid(source)
	m.SetSinkRid(sink)
	return m
}

// SourceRid returns the recorded identity of the source record.
func (m Mapping) SourceRid() record.Rid {
	return record.NewRid(m.SourceUID, derefTime(m.SourceMtime), m.SourceHash)
}

// SinkRid returns the recorded identity of the sink record.
func (m Mapping) SinkRid() record.Rid {
	return record.NewRid(m.SinkUID, derefTime(m.SinkMtime), m.SinkHash)
}

// SetSourceRid records the identity of the source record.
func (m *Mapping) SetSourceRid(r record.Rid) {
	m.SourceUID = r.UID
	m.SourceMtime = timePtr(r.Mtime)
	m.SourceHash = r.Hash
}

// SetSinkRid records the identity of the sink record.
func (m *Mapping) SetSinkRid(r record.Rid) {
	m.SinkUID = r.UID
	m.SinkMtime = timePtr(r.Mtime)
	m.SinkHash = r.Hash
}

// Flip swaps the source and sink halves.
func (m Mapping) Flip() Mapping {
	return Mapping{
		OID:               m.OID,
		SourceProviderUID: m.SinkProviderUID,
		SourceUID:         m.SinkUID,
		SourceMtime:       m.SinkMtime,
		SourceHash:        m.SinkHash,
		SinkProviderUID:   m.SourceProviderUID,
		SinkUID:           m.SourceUID,
		SinkMtime:         m.SourceMtime,
		SinkHash:          m.SourceHash,
	}
}

// OrientedFrom returns m with provider as its source side.
// A mapping that does not involve provider is returned unchanged.
func (m Mapping) OrientedFrom(provider string) Mapping {
	if m.SourceProviderUID != provider && m.SinkProviderUID == provider {
		return m.Flip()
	}
	return m
}

// Key is the uniqueness key of the mapping.
func (m Mapping) Key() string {
	return m.SourceProviderUID + "\x00" + m.SourceUID + "\x00" + m.SinkProviderUID
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = record.NormalizeMtime(t)
	return &t
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
