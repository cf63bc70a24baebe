package integrity

import (
	"conduit-sync/core/logger"
	"conduit-sync/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/schema", h.HandleSchemaCheck)
	group.Get("/endpoints", h.HandleEndpointsCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Checks the mapping table schema and the reachability of every conduit endpoint.
// @Tags integrity
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	report := make(map[string]interface{})

	if schema, err := h.service.CheckSchema(); err != nil {
		report["schema"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["schema"] = schema
	}

	report["endpoints"] = h.service.CheckEndpoints(c.Context())

	return c.JSON(report)
}

// HandleSchemaCheck checks the mapping table schema.
// @Summary Check Mapping Schema
// @Description Checks that the mapping table has every column of the mapping model.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.SchemaReport "Schema Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckSchema()
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !report.Matched {
		l.Warn("Mapping schema mismatch", zap.Strings("errors", report.Errors))
	}
	return c.JSON(report)
}

// HandleEndpointsCheck checks and optionally fixes conduit endpoints.
// @Summary Check Endpoints
// @Description Checks that folders and buckets of every conduit exist. Optionally creates missing ones.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Create missing folders and buckets"
// @Success 200 {object} map[string]interface{} "Endpoint Report"
// @Router /integrity/endpoints [get]
func (h *Handler) HandleEndpointsCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var reports []checks.EndpointReport
	status := "checked"
	if c.QueryBool("fix", false) {
		l.Info("Attempting to fix endpoints")
		reports = h.service.FixEndpoints(c.Context())
		status = "fixed"
	} else {
		reports = h.service.CheckEndpoints(c.Context())
	}

	for _, r := range reports {
		if r.Status == checks.StatusError {
			l.Warn("Endpoint unavailable", zap.String("uid", r.UID), zap.String("error", r.Error))
		}
	}

	return c.JSON(fiber.Map{
		"status":    status,
		"endpoints": reports,
	})
}
