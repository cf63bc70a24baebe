package cmd

import (
	"errors"
	"fmt"
	"os"

	"conduit-sync/core/config"
	"conduit-sync/core/database"
	"conduit-sync/core/logger"
	"conduit-sync/core/mapping"
	"conduit-sync/core/scan"
	"conduit-sync/core/storage"
	"conduit-sync/feature/conduit"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	mappings *mapping.Store
	conduits *conduit.Service
	scans    *scan.Manager
}

// bootstrap loads configuration and builds every conduit.
func bootstrap() (*app, error) {
	cfg, err := config.LoadConfig(envDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if conduitsFile != "" {
		cfg.Sync.ConduitsFile = conduitsFile
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	store, err := mapping.NewStore(db, l)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare mapping store: %w", err)
	}

	// s3 endpoints report not-configured when the client cannot be built.
	var client storage.Client
	if c, err := storage.NewClient(cfg.Storage); err != nil {
		l.Warn("Storage client unavailable", zap.Error(err))
	} else {
		client = c
	}

	defs, err := conduit.LoadDefinitions(cfg.Sync.ConduitsFile)
	if errors.Is(err, os.ErrNotExist) {
		l.Warn("No conduits file, starting without conduits", zap.String("file", cfg.Sync.ConduitsFile))
	} else if err != nil {
		return nil, err
	}

	scans := scan.NewManager(cfg.Sync.MaxConcurrentScans, l)
	factory := conduit.NewFactory(client, cfg.Storage.Bucket, scans, l)
	svc, err := conduit.NewService(defs, factory, store, l)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: l, db: db, mappings: store, conduits: svc, scans: scans}, nil
}
