package folder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"conduit-sync/core/dataprovider"
	"conduit-sync/core/record"
	"conduit-sync/core/scan"

	"go.uber.org/zap"
)

// tempPrefix marks in-flight writes. Such files are hidden from listings.
const tempPrefix = ".conduit-"

// Options configure a folder endpoint.
type Options struct {
	Path           string
	IncludeHidden  bool
	FollowSymlinks bool
	// InType may carry conversion arguments, e.g. "file?keep_mtime=false".
	InType string
}

type cachedHash struct {
	size  int64
	mtime time.Time
	hash  string
}

// Provider is a TwoWay dataprovider over one directory tree.
type Provider struct {
	*dataprovider.Module

	root   string
	opts   Options
	scans  *scan.Manager
	logger *zap.Logger

	mu     sync.Mutex
	uids   []string
	dirs   []string
	hashes map[string]cachedHash
}

var _ dataprovider.TwoWay = (*Provider)(nil)

// New creates a folder provider. The path is made absolute; it does not need
// to exist until Refresh.
func New(opts Options, scans *scan.Manager, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scans == nil {
		scans = scan.NewManager(scan.DefaultMaxConcurrent, logger)
	}

	root := ""
	if opts.Path != "" {
		abs, err := filepath.Abs(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve folder path: %w", err)
		}
		root = abs
	}

	inType := opts.InType
	if inType == "" {
		inType = TypeName
	}

	return &Provider{
		Module: dataprovider.NewModule("folder:"+root, dataprovider.Descriptor{
			Name:     "folder",
			Category: dataprovider.CategoryFiles,
			InType:   inType,
			OutType:  TypeName,
		}),
		root:   root,
		opts:   opts,
		scans:  scans,
		logger: logger.With(zap.String("folder", root)),
		hashes: make(map[string]cachedHash),
	}, nil
}

// Root returns the absolute folder path.
func (p *Provider) Root() string { return p.root }

// Configured reports a missing path as ErrNotConfigured.
func (p *Provider) Configured() error {
	if p.root == "" {
		return fmt.Errorf("%w: folder path is empty", dataprovider.ErrNotConfigured)
	}
	return nil
}

// Refresh scans the tree through the scan manager.
func (p *Provider) Refresh(ctx context.Context) error {
	if err := p.BeginRefresh(); err != nil {
		return dataprovider.NewRefreshError(p.UID(), err)
	}

	info, err := os.Stat(p.root)
	if err != nil {
		return dataprovider.NewRefreshError(p.UID(), err)
	}
	if !info.IsDir() {
		return dataprovider.NewRefreshError(p.UID(), fmt.Errorf("%s is not a directory", p.root))
	}

	s := p.scans.Scan(p.root, scan.Options{
		IncludeHidden:  p.opts.IncludeHidden,
		FollowSymlinks: p.opts.FollowSymlinks,
		OnProgress: func(fraction float64) {
			p.logger.Debug("Scanning", zap.Float64("progress", fraction))
		},
	})
	err = s.Wait(ctx)
	if err != nil {
		s.Cancel()
	} else if s.Cancelled() {
		err = scan.ErrCancelled
	}
	p.scans.Release(p.root)
	if err != nil {
		// A partial listing would read as deletions downstream.
		return dataprovider.NewRefreshError(p.UID(), err)
	}

	uris := s.URIs()
	uids := make([]string, 0, len(uris))
	for _, uri := range uris {
		if strings.HasPrefix(filepath.Base(uri), tempPrefix) {
			continue
		}
		uid, err := p.uidFor(uri)
		if err != nil {
			continue
		}
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	p.mu.Lock()
	p.uids = uids
	p.dirs = s.Dirs()
	p.mu.Unlock()

	p.logger.Debug("Folder refreshed", zap.Int("files", len(uids)))
	return nil
}

// GetAll returns the files found by the last Refresh.
func (p *Provider) GetAll(_ context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.uids))
	copy(out, p.uids)
	return out, nil
}

// WatchDirs returns the directories visited by the last Refresh.
func (p *Provider) WatchDirs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.dirs))
	copy(out, p.dirs)
	return out
}

func (p *Provider) Get(_ context.Context, uid string) (record.DataType, error) {
	p.MarkSyncing()
	path, err := p.pathFor(uid)
	if err != nil {
		return nil, err
	}
	return p.load(uid, path)
}

func (p *Provider) Put(ctx context.Context, data record.DataType, overwrite bool, uid string) dataprovider.PutResult {
	p.MarkSyncing()

	blob, ok := data.(record.Blob)
	if !ok {
		return dataprovider.Failed(dataprovider.NewSynchronizeError(data.UID(),
			fmt.Errorf("unsupported data type %q", data.Type())))
	}

	key := uid
	if key == "" {
		key = data.UID()
	}
	path, err := p.pathFor(key)
	if err != nil {
		return dataprovider.Failed(dataprovider.NewSynchronizeError(key, err))
	}

	existing, err := p.load(key, path)
	switch {
	case err == nil:
		if existing.Hash() == blob.Hash() && blob.Hash() != "" {
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
		return dataprovider.Failed(dataprovider.NewSynchronizeError(key, err))
	}

	if err := ctx.Err(); err != nil {
		return dataprovider.Failed(err)
	}

	if err := p.write(path, blob); err != nil {
		return dataprovider.Failed(dataprovider.NewSynchronizeError(key, err))
	}
	p.mu.Lock()
	delete(p.hashes, path)
	p.mu.Unlock()

	stored, err := p.load(key, path)
	if err != nil {
		return dataprovider.Failed(dataprovider.NewSynchronizeError(key, err))
	}
	return dataprovider.Stored(stored.Rid())
}

func (p *Provider) Delete(_ context.Context, uid string) error {
	p.MarkSyncing()
	path, err := p.pathFor(uid)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", uid, err)
	}

	p.mu.Lock()
	delete(p.hashes, path)
	p.mu.Unlock()
	return nil
}

// write stages content next to path and renames it into place.
func (p *Provider) write(path string, blob record.Blob) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	src, err := blob.Open()
	if err != nil {
		return fmt.Errorf("failed to open content: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if mtime := blob.Mtime(); !mtime.IsZero() {
		if err := os.Chtimes(tmpName, mtime, mtime); err != nil {
			return fmt.Errorf("failed to set mtime: %w", err)
		}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// load stats and hashes a file on disk.
func (p *Provider) load(uid, path string) (*File, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", dataprovider.ErrNotFound, uid)
	}
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", dataprovider.ErrNotFound, uid)
	}

	hash, err := p.hash(path, info)
	if err != nil {
		return nil, err
	}

	f := &File{path: path, size: info.Size()}
	f.SetUID(uid)
	f.SetMtime(info.ModTime())
	f.SetHash(hash)
	f.SetOpenURI("file://" + filepath.ToSlash(path))
	return f, nil
}

// hash returns the content hash, reusing the cached value while size and
// mtime are unchanged.
func (p *Provider) hash(path string, info fs.FileInfo) (string, error) {
	p.mu.Lock()
	c, ok := p.hashes[path]
	p.mu.Unlock()
	if ok && c.size == info.Size() && c.mtime.Equal(info.ModTime()) {
		return c.hash, nil
	}

	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	hash, _, err := record.HashReader(fh)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}

	p.mu.Lock()
	p.hashes[path] = cachedHash{size: info.Size(), mtime: info.ModTime(), hash: hash}
	p.mu.Unlock()
	return hash, nil
}

// pathFor maps a UID to an absolute path inside the root.
func (p *Provider) pathFor(uid string) (string, error) {
	if uid == "" {
		return "", errors.New("empty uid")
	}
	path := filepath.Join(p.root, filepath.FromSlash(uid))
	rel, err := filepath.Rel(p.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("uid %q escapes folder %s", uid, p.root)
	}
	return path, nil
}

// uidFor maps an absolute path inside the root to its UID.
func (p *Provider) uidFor(path string) (string, error) {
	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Check reports whether the root exists and is a directory.
func (p *Provider) Check(_ context.Context) error {
	if err := p.Configured(); err != nil {
		return err
	}
	info, err := os.Stat(p.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", p.root)
	}
	return nil
}

// Fix creates a missing root.
func (p *Provider) Fix(_ context.Context) error {
	if err := p.Configured(); err != nil {
		return err
	}
	if err := os.MkdirAll(p.root, 0o755); err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	p.logger.Info("Created missing folder")
	return nil
}
