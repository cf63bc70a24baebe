package conduit

import (
	"fmt"
	"sync"

	"conduit-sync/core/convert"
	"conduit-sync/core/dataprovider"
	"conduit-sync/core/dataprovider/memory"
	"conduit-sync/core/scan"
	"conduit-sync/core/storage"
	"conduit-sync/feature/folder"
	"conduit-sync/feature/objectstore"

	"go.uber.org/zap"
)

// Factory builds providers from endpoint definitions.
type Factory struct {
	// Storage backs s3 endpoints. When nil they report ErrNotConfigured.
	Storage storage.Client
	// DefaultBucket is used by s3 endpoints without a bucket.
	DefaultBucket string
	Scans         *scan.Manager
	Logger        *zap.Logger

	mu       sync.Mutex
	memories map[string]*memory.Provider
}

// NewFactory creates a factory. client may be nil.
func NewFactory(client storage.Client, defaultBucket string, scans *scan.Manager, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scans == nil {
		scans = scan.NewManager(scan.DefaultMaxConcurrent, logger)
	}
	return &Factory{
		Storage:       client,
		DefaultBucket: defaultBucket,
		Scans:         scans,
		Logger:        logger,
		memories:      make(map[string]*memory.Provider),
	}
}

// Build returns the provider for e. Memory endpoints with the same path share
// one store.
func (f *Factory) Build(e EndpointDef) (dataprovider.Provider, error) {
	switch e.Type {
	case TypeFolder:
		return folder.New(folder.Options{
			Path:           e.Path,
			IncludeHidden:  e.IncludeHidden,
			FollowSymlinks: e.FollowSymlinks,
			InType:         e.InType,
		}, f.Scans, f.Logger)
	case TypeS3:
		bucket := e.Bucket
		if bucket == "" {
			bucket = f.DefaultBucket
		}
		return objectstore.New(f.Storage, objectstore.Options{
			Bucket:       bucket,
			Prefix:       e.Prefix,
			CreateBucket: e.CreateBucket,
			InType:       e.InType,
		}, f.Logger), nil
	case TypeMemory:
		f.mu.Lock()
		defer f.mu.Unlock()
		if p, ok := f.memories[e.Path]; ok {
			return p, nil
		}
		p := memory.New("memory:"+e.Path, memory.Options{ChangeLog: true})
		f.memories[e.Path] = p
		return p, nil
	default:
		return nil, fmt.Errorf("unknown endpoint type %q", e.Type)
	}
}

// Graph returns a converter graph holding the conversions of every endpoint type.
func (f *Factory) Graph() *convert.Graph {
	g := convert.NewGraph(f.Logger)
	g.RegisterTable(folder.Conversions())
	g.RegisterTable(objectstore.Conversions())
	return g
}
