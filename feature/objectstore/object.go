package objectstore

import (
	"fmt"
	"io"

	"conduit-sync/core/convert"
	"conduit-sync/core/record"
	"conduit-sync/core/utils"
)

// TypeName is the data type produced and consumed by object stores.
const TypeName = "object"

// Object is an object record. Content is fetched lazily from the bucket or
// read from the blob it was converted from.
type Object struct {
	record.Base
	key   string
	size  int64
	fetch func() (io.ReadCloser, error)
	src   record.Blob
}

var _ record.Blob = (*Object)(nil)

func (o *Object) Type() string { return TypeName }

// Key is the full object key, empty for converted records.
func (o *Object) Key() string { return o.key }

func (o *Object) Size() int64 { return o.size }

func (o *Object) Open() (io.ReadCloser, error) {
	switch {
	case o.src != nil:
		return o.src.Open()
	case o.fetch != nil:
		return o.fetch()
	default:
		return nil, fmt.Errorf("object %s has no content", o.UID())
	}
}

// FromBlob wraps b as an object record, keeping its identity.
func FromBlob(b record.Blob) *Object {
	o := &Object{size: b.Size(), src: b}
	o.SetUID(b.UID())
	o.CopyIdentity(b)
	return o
}

// Conversions returns the conversion table declared by object stores.
func Conversions() map[string]convert.Func {
	return map[string]convert.Func{
		"file,object":   toObject,
		"object,object": toObject,
	}
}

// toObject honours the max_size argument, e.g. "object?max_size=10m".
func toObject(data record.DataType, args map[string]string) (record.DataType, error) {
	blob, ok := data.(record.Blob)
	if !ok {
		return nil, fmt.Errorf("%s is not a blob", data.Type())
	}
	limit, err := utils.ArgInt(args, "max_size", 0)
	if err != nil {
		return nil, err
	}
	if limit > 0 && blob.Size() > limit {
		return nil, fmt.Errorf("%s is %d bytes, over the %d byte limit", blob.UID(), blob.Size(), limit)
	}
	return FromBlob(blob), nil
}
