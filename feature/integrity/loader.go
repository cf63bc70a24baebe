package integrity

import (
	"conduit-sync/feature/conduit"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature mounts the integrity routes.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the integrity feature. Without a database there is
// nothing to inspect and the feature stays disabled.
func NewFeature(db *gorm.DB, conduits *conduit.Service, logger *zap.Logger) *Feature {
	svc := NewService(db, conduits, logger)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

func (f *Feature) Name() string { return "integrity" }

func (f *Feature) IsEnabled() bool { return f.service.db != nil }

func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
