package backup

import (
	"pr-dashboard/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for store snapshots.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the backup routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/backup")
	group.Post("/run", h.HandleRun)
	group.Get("/list", h.HandleList)
}

// HandleRun exports a snapshot of the store to object storage.
// @Summary Run Backup
// @Description Exports all pulls and reservations as a JSON snapshot object and prunes old snapshots.
// @Tags backup
// @Produce json
// @Success 200 {object} backup.RunReport "Snapshot report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /backup/run [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Running store snapshot")

	report, err := h.service.Run(c.Context())
	if err != nil {
		l.Error("Snapshot failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	l.Info("Snapshot stored", zap.String("object", report.Object), zap.Int("pruned", report.Pruned))
	return c.JSON(report)
}

// HandleList lists stored snapshots.
// @Summary List Backups
// @Description Lists stored snapshot objects, newest first.
// @Tags backup
// @Produce json
// @Success 200 {array} backup.SnapshotInfo "Snapshots"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /backup/list [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	infos, err := h.service.List(c.Context())
	if err != nil {
		l.Error("Snapshot listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(infos)
}
