package sync

import (
	"context"
	"errors"

	"delta-apply/core/logger"
	"delta-apply/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the sync job.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ApplyRequest is the body of POST /sync/apply.
type ApplyRequest struct {
	// Operations is a subset of insert, update and delete.
	Operations []string `json:"operations"`
	DryRun     bool     `json:"dry_run"`
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Get("/summary", h.HandleSummary)
	group.Get("/changes", h.HandleChanges)
	group.Post("/apply", h.HandleApply)
}

// HandleSummary returns the pending change counts.
// @Summary Get Sync Summary
// @Description Compares source and target and returns the number of rows per partition.
// @Tags sync
// @Produce json
// @Success 200 {object} reconcile.Summary "Summary"
// @Failure 422 {object} map[string]string "Schema mismatch or duplicate key"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/summary [get]
func (h *Handler) HandleSummary(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	summary, err := h.service.Summary(c.Context())
	if err != nil {
		return h.fail(c, l, "Sync summary failed", err)
	}
	return c.JSON(summary)
}

// HandleChanges returns the pending rows.
// @Summary Get Pending Changes
// @Description Returns the rows that would be inserted, updated or deleted, and the unchanged ones.
// @Tags sync
// @Produce json
// @Param partition query string false "inserts, updates, deletes or unchanged"
// @Success 200 {object} ChangesView "Change set"
// @Failure 400 {object} map[string]string "Unknown partition"
// @Failure 422 {object} map[string]string "Schema mismatch or duplicate key"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/changes [get]
func (h *Handler) HandleChanges(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	view, err := h.service.Changes(c.Context(), c.Query("partition"))
	if err != nil {
		return h.fail(c, l, "Sync changes failed", err)
	}
	return c.JSON(view)
}

// HandleApply writes the requested operations to the target.
// @Summary Apply Changes
// @Description Applies the requested operations to the target. With dry_run nothing is written.
// @Tags sync
// @Accept json
// @Produce json
// @Param request body ApplyRequest false "Operations and dry run flag"
// @Success 200 {object} ApplyView "Apply result"
// @Failure 400 {object} map[string]string "Bad request or unsupported operation"
// @Failure 409 {object} map[string]string "Target busy"
// @Failure 422 {object} map[string]string "Schema mismatch or duplicate key"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/apply [post]
func (h *Handler) HandleApply(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req ApplyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body: " + err.Error()})
		}
	}
	if c.QueryBool("dry_run") {
		req.DryRun = true
	}

	l.Info("Applying changes", zap.Strings("operations", req.Operations), zap.Bool("dry_run", req.DryRun))

	view, err := h.service.Apply(c.Context(), req.Operations, req.DryRun)
	if err != nil {
		return h.fail(c, l, "Sync apply failed", err)
	}
	return c.JSON(view)
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	status := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Warn(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// StatusFor maps an error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, reconcile.ErrUnsupportedOperation):
		return fiber.StatusBadRequest
	case errors.Is(err, reconcile.ErrBackendBusy):
		return fiber.StatusConflict
	case errors.Is(err, reconcile.ErrSchemaMismatch), errors.Is(err, reconcile.ErrDuplicateKey):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}
