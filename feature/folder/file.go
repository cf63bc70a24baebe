package folder

import (
	"fmt"
	"io"
	"os"
	"time"

	"conduit-sync/core/convert"
	"conduit-sync/core/record"
	"conduit-sync/core/utils"
)

// TypeName is the data type produced and consumed by folders.
const TypeName = "file"

// File is a file record. Content comes from the file on disk or, for
// converted records, from the blob it was converted from.
type File struct {
	record.Base
	path string
	size int64
	src  record.Blob
}

var _ record.Blob = (*File)(nil)

func (f *File) Type() string { return TypeName }

// Path is the absolute path of a file read from disk, empty for converted records.
func (f *File) Path() string { return f.path }

func (f *File) Size() int64 { return f.size }

func (f *File) Open() (io.ReadCloser, error) {
	if f.src != nil {
		return f.src.Open()
	}
	if f.path == "" {
		return nil, fmt.Errorf("file %s has no content", f.UID())
	}
	return os.Open(f.path)
}

// FromBlob wraps b as a file record, keeping its identity.
func FromBlob(b record.Blob) *File {
	f := &File{size: b.Size(), src: b}
	f.SetUID(b.UID())
	f.CopyIdentity(b)
	return f
}

// Conversions returns the conversion table declared by folders.
func Conversions() map[string]convert.Func {
	return map[string]convert.Func{
		"file,file":   toFile,
		"object,file": toFile,
	}
}

func toFile(data record.DataType, args map[string]string) (record.DataType, error) {
	blob, ok := data.(record.Blob)
	if !ok {
		return nil, fmt.Errorf("%s is not a blob", data.Type())
	}
	keep, err := utils.ArgBool(args, "keep_mtime", true)
	if err != nil {
		return nil, err
	}

	f := FromBlob(blob)
	if !keep {
		f.SetMtime(time.Time{})
	}
	return f, nil
}
