package integrity

import (
	"context"

	"conduit-sync/core/mapping"
	"conduit-sync/feature/conduit"
	"conduit-sync/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles integrity checks.
type Service struct {
	db       *gorm.DB
	conduits *conduit.Service
	logger   *zap.Logger
}

// NewService creates a new integrity service.
func NewService(db *gorm.DB, conduits *conduit.Service, logger *zap.Logger) *Service {
	return &Service{
		db:       db,
		conduits: conduits,
		logger:   logger,
	}
}

// CheckSchema verifies the mapping table against the mapping model.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db, mapping.Mapping{})
}

// CheckEndpoints reports the reachability of every conduit endpoint.
func (s *Service) CheckEndpoints(ctx context.Context) []checks.EndpointReport {
	return checks.CheckEndpoints(ctx, s.endpoints())
}

// FixEndpoints creates missing folders and buckets.
func (s *Service) FixEndpoints(ctx context.Context) []checks.EndpointReport {
	return checks.FixEndpoints(ctx, s.endpoints(), s.logger)
}

func (s *Service) endpoints() []checks.Endpoint {
	if s.conduits == nil {
		return nil
	}
	var out []checks.Endpoint
	for _, c := range s.conduits.Conduits() {
		out = append(out,
			checks.Endpoint{Conduit: c.Name, Side: "source", Provider: c.Source},
			checks.Endpoint{Conduit: c.Name, Side: "sink", Provider: c.Sink},
		)
	}
	return out
}
