package record

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Blob is a record whose content is a byte stream, such as a file or an object.
type Blob interface {
	DataType
	// Open returns a reader over the content. Callers close it.
	Open() (io.ReadCloser, error)
	// Size is the content length in bytes, or -1 when unknown.
	Size() int64
}

// HashReader returns the hex SHA-256 of everything read from r and the byte count.
func HashReader(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// HashBytes returns the hex SHA-256 of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Bytes is an in-memory Blob.
type Bytes struct {
	Base
	TypeName string
	Data     []byte
}

// NewBytes builds an in-memory blob hashed from data.
func NewBytes(typeName, uid string, data []byte) *Bytes {
	b := &Bytes{TypeName: typeName, Data: data}
	b.SetUID(uid)
	b.SetHash(HashBytes(data))
	return b
}

func (b *Bytes) Type() string { return b.TypeName }

func (b *Bytes) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

func (b *Bytes) Size() int64 { return int64(len(b.Data)) }
