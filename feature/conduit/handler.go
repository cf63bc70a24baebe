package conduit

import (
	"errors"

	"conduit-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for conduits.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the conduit routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/conduits")
	group.Get("/", h.HandleList)
	group.Get("/:name", h.HandleGet)
	group.Post("/:name/sync", h.HandleSync)
	group.Get("/:name/mappings", h.HandleListMappings)
	group.Delete("/:name/mappings", h.HandlePurgeMappings)
}

// HandleList lists conduits.
// @Summary List Conduits
// @Description Lists every configured conduit with endpoint status and its last result.
// @Tags conduits
// @Produce json
// @Success 200 {array} conduit.Summary "Conduits"
// @Router /conduits [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	return c.JSON(h.service.List())
}

// HandleGet returns one conduit.
// @Summary Get Conduit
// @Tags conduits
// @Produce json
// @Param name path string true "Conduit name"
// @Success 200 {object} conduit.Summary "Conduit"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /conduits/{name} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	sum, err := h.service.Get(c.Params("name"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(sum)
}

// HandleSync runs a pass.
// @Summary Synchronize Conduit
// @Description Runs one reconciliation pass. Concurrent identical requests share the same pass.
// @Tags conduits
// @Produce json
// @Param name path string true "Conduit name"
// @Param slow query boolean false "Compare every record instead of using change logs"
// @Param dry_run query boolean false "Plan only, change nothing"
// @Success 200 {object} reconcile.Result "Pass result"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /conduits/{name}/sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	name := c.Params("name")
	l := logger.WithRayID(h.logger, c).With(zap.String("conduit", name))
	l.Info("Sync requested")

	opts := SyncOptions{
		Slow:   c.QueryBool("slow", false),
		DryRun: c.QueryBool("dry_run", false),
	}
	res, err := h.service.Sync(c.Context(), name, opts)
	if err != nil {
		l.Error("Sync failed", zap.Error(err))
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// HandleListMappings lists the mappings of a conduit.
// @Summary List Mappings
// @Tags conduits
// @Produce json
// @Param name path string true "Conduit name"
// @Success 200 {array} mapping.Mapping "Mappings"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /conduits/{name}/mappings [get]
func (h *Handler) HandleListMappings(c *fiber.Ctx) error {
	rows, err := h.service.Mappings(c.Context(), c.Params("name"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(rows)
}

// HandlePurgeMappings deletes the mappings of a conduit.
// @Summary Purge Mappings
// @Description Deletes every mapping of the conduit. The next pass treats all records as new.
// @Tags conduits
// @Produce json
// @Param name path string true "Conduit name"
// @Success 200 {object} map[string]int64 "Deleted count"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /conduits/{name}/mappings [delete]
func (h *Handler) HandlePurgeMappings(c *fiber.Ctx) error {
	name := c.Params("name")
	l := logger.WithRayID(h.logger, c)

	n, err := h.service.PurgeMappings(c.Context(), name)
	if err != nil {
		return h.fail(c, err)
	}
	l.Warn("Mappings purged", zap.String("conduit", name), zap.Int64("deleted", n))
	return c.JSON(fiber.Map{"deleted": n})
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if errors.Is(err, ErrUnknownConduit) {
		status = fiber.StatusNotFound
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
