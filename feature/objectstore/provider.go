package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"conduit-sync/core/dataprovider"
	"conduit-sync/core/record"
	"conduit-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Metadata keys written on upload.
const (
	metaHash  = "sha256"
	metaMtime = "mtime"
)

// Options configure an object store endpoint.
type Options struct {
	Bucket string
	// Prefix scopes the endpoint to keys below it. A trailing slash is added.
	Prefix string
	// CreateBucket makes Refresh create a missing bucket.
	CreateBucket bool
	// InType may carry conversion arguments, e.g. "object?max_size=10m".
	InType string
	// Clock stamps uploads of records without an mtime; defaults to time.Now.
	Clock func() time.Time
}

type cachedHash struct {
	etag string
	hash string
}

// Provider is a TwoWay dataprovider over a bucket prefix.
type Provider struct {
	*dataprovider.Module

	client storage.Client
	opts   Options
	logger *zap.Logger

	mu     sync.Mutex
	uids   []string
	hashes map[string]cachedHash
}

var _ dataprovider.TwoWay = (*Provider)(nil)

// New creates an object store provider.
func New(client storage.Client, opts Options, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	opts.Prefix = strings.Trim(opts.Prefix, "/")
	if opts.Prefix != "" {
		opts.Prefix += "/"
	}
	inType := opts.InType
	if inType == "" {
		inType = TypeName
	}

	return &Provider{
		Module: dataprovider.NewModule("s3:"+opts.Bucket+"/"+opts.Prefix, dataprovider.Descriptor{
			Name:     "s3",
			Category: dataprovider.CategoryObjects,
			InType:   inType,
			OutType:  TypeName,
		}),
		client: client,
		opts:   opts,
		logger: logger.With(zap.String("bucket", opts.Bucket), zap.String("prefix", opts.Prefix)),
		hashes: make(map[string]cachedHash),
	}
}

// Configured reports a missing client or bucket as ErrNotConfigured.
func (p *Provider) Configured() error {
	if p.client == nil {
		return fmt.Errorf("%w: no storage client", dataprovider.ErrNotConfigured)
	}
	if p.opts.Bucket == "" {
		return fmt.Errorf("%w: bucket is empty", dataprovider.ErrNotConfigured)
	}
	return nil
}

// Refresh checks the bucket and lists the objects below the prefix.
func (p *Provider) Refresh(ctx context.Context) error {
	if err := p.BeginRefresh(); err != nil {
		return dataprovider.NewRefreshError(p.UID(), err)
	}

	exists, err := p.client.BucketExists(ctx, p.opts.Bucket)
	if err != nil {
		return dataprovider.NewRefreshError(p.UID(), err)
	}
	if !exists {
		if !p.opts.CreateBucket {
			return dataprovider.NewRefreshError(p.UID(), fmt.Errorf("bucket %s not found", p.opts.Bucket))
		}
		if err := p.client.MakeBucket(ctx, p.opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return dataprovider.NewRefreshError(p.UID(), fmt.Errorf("failed to create bucket: %w", err))
		}
		p.logger.Info("Created bucket")
	}

	var uids []string
	opts := minio.ListObjectsOptions{Prefix: p.opts.Prefix, Recursive: true}
	for obj := range p.client.ListObjects(ctx, p.opts.Bucket, opts) {
		if obj.Err != nil {
			return dataprovider.NewRefreshError(p.UID(), obj.Err)
		}
		uid := strings.TrimPrefix(obj.Key, p.opts.Prefix)
		if uid == "" || strings.HasSuffix(uid, "/") {
			continue
		}
		uids = append(uids, uid)
	}
	if err := ctx.Err(); err != nil {
		return dataprovider.NewRefreshError(p.UID(), err)
	}
	sort.Strings(uids)

	p.mu.Lock()
	p.uids = uids
	p.mu.Unlock()

	p.logger.Debug("Bucket refreshed", zap.Int("objects", len(uids)))
	return nil
}

func (p *Provider) GetAll(_ context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.uids))
	copy(out, p.uids)
	return out, nil
}

func (p *Provider) Get(ctx context.Context, uid string) (record.DataType, error) {
	p.MarkSyncing()
	key, err := p.keyFor(uid)
	if err != nil {
		return nil, err
	}
	return p.load(ctx, uid, key)
}

func (p *Provider) Put(ctx context.Context, data record.DataType, overwrite bool, uid string) dataprovider.PutResult {
	p.MarkSyncing()

	blob, ok := data.(record.Blob)
	if !ok {
		return dataprovider.Failed(dataprovider.NewSynchronizeError(data.UID(),
			fmt.Errorf("unsupported data type %q", data.Type())))
	}
	if uid == "" {
		uid = data.UID()
	}
	key, err := p.keyFor(uid)
	if err != nil {
		return dataprovider.Failed(dataprovider.NewSynchronizeError(uid, err))
	}

	existing, err := p.load(ctx, uid, key)
	switch {
	case err == nil:
		if blob.Hash() != "" && existing.Hash() == blob.Hash() {
			return dataprovider.Stored(existing.Rid())
		}
		if !overwrite {
			cmp := record.Compare(blob, existing, record.Baseline{})
			if cmp != record.ComparisonNewer {
				return dataprovider.Conflicted(cmp, blob, existing)
			}
		}
	case errors.Is(err, dataprovider.ErrNotFound):
	default:
		return dataprovider.Failed(dataprovider.NewSynchronizeError(uid, err))
	}

	hash := blob.Hash()
	if hash == "" {
		if hash, err = hashBlob(blob); err != nil {
			return dataprovider.Failed(dataprovider.NewSynchronizeError(uid, err))
		}
	}
	mtime := blob.Mtime()
	if mtime.IsZero() {
		mtime = record.NormalizeMtime(p.opts.Clock())
	}

	body, err := blob.Open()
	if err != nil {
		return dataprovider.Failed(dataprovider.NewSynchronizeError(uid, err))
	}
	defer body.Close()

	_, err = p.client.PutObject(ctx, p.opts.Bucket, key, body, blob.Size(), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
		UserMetadata: map[string]string{
			metaHash:  hash,
			metaMtime: mtime.UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return dataprovider.Failed(dataprovider.NewSynchronizeError(uid, fmt.Errorf("failed to upload: %w", err)))
	}

	p.mu.Lock()
	delete(p.hashes, key)
	p.mu.Unlock()

	return dataprovider.Stored(record.NewRid(uid, mtime, hash))
}

func (p *Provider) Delete(ctx context.Context, uid string) error {
	p.MarkSyncing()
	key, err := p.keyFor(uid)
	if err != nil {
		return err
	}
	if err := p.client.RemoveObject(ctx, p.opts.Bucket, key, minio.RemoveObjectOptions{}); err != nil && !storage.IsNotFound(err) {
		return fmt.Errorf("failed to delete %s: %w", uid, err)
	}
	p.mu.Lock()
	delete(p.hashes, key)
	p.mu.Unlock()
	return nil
}

// load stats an object and resolves its hash and mtime.
func (p *Provider) load(ctx context.Context, uid, key string) (*Object, error) {
	info, err := p.client.StatObject(ctx, p.opts.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", dataprovider.ErrNotFound, uid)
		}
		return nil, err
	}

	mtime := info.LastModified
	if raw := metadata(info, metaMtime); raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			mtime = t
		}
	}

	hash := metadata(info, metaHash)
	if hash == "" {
		if hash, err = p.hashObject(ctx, key, info.ETag); err != nil {
			return nil, err
		}
	}

	bucket := p.opts.Bucket
	o := &Object{
		key:  key,
		size: info.Size,
		fetch: func() (io.ReadCloser, error) {
			return p.client.GetObject(context.Background(), bucket, key, minio.GetObjectOptions{})
		},
	}
	o.SetUID(uid)
	o.SetMtime(mtime)
	o.SetHash(hash)
	o.SetOpenURI("s3://" + bucket + "/" + key)
	return o, nil
}

// hashObject downloads an object without a stored hash. Results are cached
// per ETag.
func (p *Provider) hashObject(ctx context.Context, key, etag string) (string, error) {
	p.mu.Lock()
	c, ok := p.hashes[key]
	p.mu.Unlock()
	if ok && etag != "" && c.etag == etag {
		return c.hash, nil
	}

	reader, err := p.client.GetObject(ctx, p.opts.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer reader.Close()

	hash, _, err := record.HashReader(reader)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", key, err)
	}

	p.mu.Lock()
	p.hashes[key] = cachedHash{etag: etag, hash: hash}
	p.mu.Unlock()
	return hash, nil
}

func (p *Provider) keyFor(uid string) (string, error) {
	clean := path.Clean("/" + uid)[1:]
	if uid == "" || clean == "" || clean != uid {
		return "", fmt.Errorf("invalid object uid %q", uid)
	}
	return p.opts.Prefix + uid, nil
}

func hashBlob(b record.Blob) (string, error) {
	r, err := b.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()
	hash, _, err := record.HashReader(r)
	return hash, err
}

// metadata looks a user metadata value up case-insensitively. S3 returns
// keys canonicalised, with or without the x-amz-meta- prefix.
func metadata(info minio.ObjectInfo, key string) string {
	for k, v := range info.UserMetadata {
		k = strings.TrimPrefix(strings.ToLower(k), "x-amz-meta-")
		if k == key {
			return v
		}
	}
	for k, v := range info.Metadata {
		if strings.EqualFold(k, "x-amz-meta-"+key) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// Check reports whether the bucket is reachable and exists.
func (p *Provider) Check(ctx context.Context) error {
	if err := p.Configured(); err != nil {
		return err
	}
	exists, err := p.client.BucketExists(ctx, p.opts.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", p.opts.Bucket)
	}
	return nil
}

// Fix creates a missing bucket.
func (p *Provider) Fix(ctx context.Context) error {
	if err := p.Configured(); err != nil {
		return err
	}
	if err := p.client.MakeBucket(ctx, p.opts.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	p.logger.Info("Created missing bucket")
	return nil
}
