package triage

import (
	"errors"
	"fmt"
	"strconv"

	"pr-dashboard/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the triage engine.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the triage routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/", h.HandleDashboard)
	app.Post("/update-prs", h.HandleUpdate)
	app.Post("/housekeep-prs", h.HandleHousekeep)
	app.Post("/reserve-pr", h.HandleReserve)
	app.Get("/reservations", h.HandleListReservations)
	app.Post("/extend-reservations", h.HandleExtendReservations)
}

// HandleDashboard returns per-category counts and ranked pull lists.
// @Summary Dashboard
// @Description Returns per-category counts plus the unreserved, urgency-ranked pulls per category.
// @Tags triage
// @Produce json
// @Param filter query string false "Semicolon-separated substring filter terms"
// @Param limit query int false "Maximum pulls per category (default 50)"
// @Success 200 {object} triage.Dashboard "Dashboard"
// @Failure 400 {object} map[string]string "Invalid filter"
// @Router / [get]
func (h *Handler) HandleDashboard(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return h.fail(c, l, "bad limit parameter", fmt.Errorf("%w: bad limit parameter", ErrInvalidInput))
		}
		limit = parsed
	}

	board, err := h.service.Dashboard(c.Query("filter"), limit)
	if err != nil {
		return h.fail(c, l, "dashboard build failed", err)
	}
	return c.JSON(board)
}

// HandleUpdate triggers one upstream sync run.
// @Summary Sync Pulls
// @Description Fetches new pull request data from the upstream source and reconciles the store.
// @Tags triage
// @Produce json
// @Success 200 {object} triage.SyncResult "Sync summary"
// @Failure 500 {object} map[string]string "Upstream or storage failure"
// @Router /update-prs [post]
func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering sync")

	result, err := h.service.Sync(c.Context())
	if err != nil {
		return h.fail(c, l, "sync failed", err)
	}
	l.Info("Sync finished", zap.Int("upserts", result.Upserts), zap.Int("deletions", result.Deletions))
	return c.JSON(result)
}

// HandleHousekeep triggers one housekeeping pass.
// @Summary Housekeep
// @Description Recomputes every pull's category and expires stale reservations.
// @Tags triage
// @Produce json
// @Success 200 {object} triage.HousekeepResult "Housekeeping summary"
// @Failure 500 {object} map[string]string "Storage failure"
// @Router /housekeep-prs [post]
func (h *Handler) HandleHousekeep(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering housekeeping")

	result, err := h.service.Housekeep()
	if err != nil {
		return h.fail(c, l, "housekeeping failed", err)
	}
	l.Info("Housekeeping finished",
		zap.Int("recategorized", result.Recategorized),
		zap.Int("expired", result.Expired))
	return c.JSON(result)
}

// HandleReserve claims the next eligible pull for the caller.
// @Summary Reserve Pull
// @Description Claims the next eligible pull in the given category for the requesting client. Returns the pull URL, or an empty url when nothing is eligible.
// @Tags triage
// @Produce json
// @Param category query string true "Category (New, AwaitingAuthor, NeedsReviewer, NeedsMerger)"
// @Param filter query string false "Semicolon-separated substring filter terms"
// @Success 200 {object} map[string]string "Claimed pull URL"
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Router /reserve-pr [post]
func (h *Handler) HandleReserve(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	url, err := h.service.Claim(c.Query("category"), c.Query("filter"), c.IP())
	if err != nil {
		return h.fail(c, l, "claim failed", err)
	}
	if url == "" {
		l.Debug("Nothing to reserve", zap.String("category", c.Query("category")))
	} else {
		l.Info("Reserved pull", zap.String("url", url), zap.String("requester", c.IP()))
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandleListReservations lists active leases.
// @Summary List Reservations
// @Description Lists all active pull reservations with their lease times.
// @Tags triage
// @Produce json
// @Success 200 {array} models.Reservation "Reservations"
// @Router /reservations [get]
func (h *Handler) HandleListReservations(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	leases, err := h.service.ListReservations()
	if err != nil {
		return h.fail(c, l, "listing reservations failed", err)
	}
	return c.JSON(leases)
}

// HandleExtendReservations bulk-extends every lease.
// @Summary Extend Reservations
// @Description Refreshes every reservation's lease by seven days.
// @Tags triage
// @Produce json
// @Success 200 {object} map[string]int64 "Rows updated"
// @Router /extend-reservations [post]
func (h *Handler) HandleExtendReservations(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	rows, err := h.service.ExtendReservations()
	if err != nil {
		return h.fail(c, l, "extending reservations failed", err)
	}
	l.Info("Extended reservations", zap.Int64("rows", rows))
	return c.JSON(fiber.Map{"updated": rows})
}

// fail logs the error and maps it onto an HTTP status. There is no silent
// failure path: every caught error is at minimum logged.
func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	status := fiber.StatusInternalServerError
	if errors.Is(err, ErrInvalidInput) {
		status = fiber.StatusBadRequest
		l.Warn(msg, zap.Error(err))
	} else {
		l.Error(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
