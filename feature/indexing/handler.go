package indexing

import (
	"time"

	"site-indexer/core/logger"
	"site-indexer/feature/indexing/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for indexing.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the indexing routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sites/:id")
	group.Post("/cycle", h.HandleRunCycle)
	group.Post("/sync", h.HandleSyncURLs)
	group.Post("/inspect", h.HandleInspectCoverage)
	group.Post("/verify-key", h.HandleVerifyKey)
	group.Post("/urls/removal", h.HandleRequestRemoval)
	group.Get("/logs", h.HandleGetLogs)
	group.Get("/report", h.HandleGetReport)
}

func (h *Handler) siteID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid site id")
	}
	return uint(id), nil
}

// HandleRunCycle runs one reconciliation cycle for the site.
// @Summary Run Reconciliation Cycle
// @Description Diff the site's sitemap against stored state and submit live new-or-changed URLs through the enabled channels.
// @Tags indexing
// @Accept json
// @Produce json
// @Param id path int true "Site ID"
// @Success 200 {object} engine.CycleResult "Cycle Result"
// @Failure 400 {object} map[string]string "Invalid Site ID"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sites/{id}/cycle [post]
func (h *Handler) HandleRunCycle(c *fiber.Ctx) error {
	siteID, err := h.siteID(c)
	if err != nil {
		return err
	}
	l := logger.WithRayID(h.service.logger, c)

	result, err := h.service.RunCycle(c.Context(), siteID)
	if err != nil {
		l.Error("Reconciliation cycle failed", zap.Uint("site_id", siteID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(result)
}

// HandleSyncURLs runs the sitemap diff without submissions.
// @Summary Sync URLs
// @Description Refresh the tracked URL set from the sitemap without submitting anything.
// @Tags indexing
// @Accept json
// @Produce json
// @Param id path int true "Site ID"
// @Success 200 {object} engine.CycleResult "Sync Result"
// @Failure 400 {object} map[string]string "Invalid Site ID"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sites/{id}/sync [post]
func (h *Handler) HandleSyncURLs(c *fiber.Ctx) error {
	siteID, err := h.siteID(c)
	if err != nil {
		return err
	}
	l := logger.WithRayID(h.service.logger, c)

	result, err := h.service.SyncURLs(c.Context(), siteID)
	if err != nil {
		l.Error("URL sync failed", zap.Uint("site_id", siteID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(result)
}

// HandleInspectCoverage refreshes search engine coverage states.
// @Summary Inspect Coverage
// @Description Refresh the search engine coverage state of the site's submitted URLs.
// @Tags indexing
// @Accept json
// @Produce json
// @Param id path int true "Site ID"
// @Success 200 {object} engine.InspectionResult "Inspection Result"
// @Failure 400 {object} map[string]string "Invalid Site ID"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sites/{id}/inspect [post]
func (h *Handler) HandleInspectCoverage(c *fiber.Ctx) error {
	siteID, err := h.siteID(c)
	if err != nil {
		return err
	}
	l := logger.WithRayID(h.service.logger, c)

	result, err := h.service.InspectCoverage(c.Context(), siteID)
	if err != nil {
		l.Error("Coverage inspection failed", zap.Uint("site_id", siteID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(result)
}

// HandleVerifyKey checks the site's IndexNow ownership key file.
// @Summary Verify IndexNow Key
// @Description Fetch the site's key file and verify it matches the configured IndexNow key.
// @Tags indexing
// @Accept json
// @Produce json
// @Param id path int true "Site ID"
// @Success 200 {object} map[string]bool "Verification Result"
// @Failure 400 {object} map[string]string "Invalid Site ID"
// @Failure 422 {object} map[string]string "Verification Failed"
// @Router /sites/{id}/verify-key [post]
func (h *Handler) HandleVerifyKey(c *fiber.Ctx) error {
	siteID, err := h.siteID(c)
	if err != nil {
		return err
	}
	l := logger.WithRayID(h.service.logger, c)

	if err := h.service.VerifyIndexNowKey(c.Context(), siteID); err != nil {
		l.Warn("IndexNow key verification failed", zap.Uint("site_id", siteID), zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"verified": true})
}

type removalRequest struct {
	URL string `json:"url"`
}

// HandleRequestRemoval marks a tracked URL as removal-requested.
// @Summary Request URL Removal
// @Description Mark a tracked URL as removal-requested so future cycles stop submitting it.
// @Tags indexing
// @Accept json
// @Produce json
// @Param id path int true "Site ID"
// @Param request body removalRequest true "URL to remove"
// @Success 200 {object} map[string]string "Removal Requested"
// @Failure 400 {object} map[string]string "Invalid Request"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sites/{id}/urls/removal [post]
func (h *Handler) HandleRequestRemoval(c *fiber.Ctx) error {
	siteID, err := h.siteID(c)
	if err != nil {
		return err
	}
	l := logger.WithRayID(h.service.logger, c)

	var req removalRequest
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return fiber.NewError(fiber.StatusBadRequest, "body must contain a url")
	}

	if err := h.service.RequestRemoval(c.Context(), siteID, req.URL); err != nil {
		l.Error("Removal request failed", zap.Uint("site_id", siteID), zap.String("url", req.URL), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": models.StatusRemovalRequested})
}

// HandleGetLogs returns a page of the site's audit trail.
// @Summary Get Audit Trail
// @Description Page through the site's append-only indexing log, optionally filtered by action.
// @Tags indexing
// @Accept json
// @Produce json
// @Param id path int true "Site ID"
// @Param page query int false "Page (1-based)"
// @Param per_page query int false "Entries per page (max 500)"
// @Param action query string false "Filter by action"
// @Success 200 {object} auditlog.Page "Audit Trail Page"
// @Failure 400 {object} map[string]string "Invalid Site ID"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sites/{id}/logs [get]
func (h *Handler) HandleGetLogs(c *fiber.Ctx) error {
	siteID, err := h.siteID(c)
	if err != nil {
		return err
	}
	l := logger.WithRayID(h.service.logger, c)

	page, err := h.service.Logs(c.Context(), siteID,
		c.QueryInt("page", 1), c.QueryInt("per_page", 0), c.Query("action"))
	if err != nil {
		l.Error("Audit trail lookup failed", zap.Uint("site_id", siteID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(page)
}

// HandleGetReport returns the site's daily activity report.
// @Summary Get Daily Report
// @Description Summarize one UTC day of indexing activity for the site. Defaults to today.
// @Tags indexing
// @Accept json
// @Produce json
// @Param id path int true "Site ID"
// @Param day query string false "Day (YYYY-MM-DD, UTC)"
// @Success 200 {object} report.DailyReport "Daily Report"
// @Failure 400 {object} map[string]string "Invalid Request"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sites/{id}/report [get]
func (h *Handler) HandleGetReport(c *fiber.Ctx) error {
	siteID, err := h.siteID(c)
	if err != nil {
		return err
	}
	l := logger.WithRayID(h.service.logger, c)

	day := c.Query("day")
	if day == "" {
		day = time.Now().UTC().Format(models.DayFormat)
	}

	rep, err := h.service.DailyReport(c.Context(), siteID, day)
	if err != nil {
		l.Error("Daily report failed", zap.Uint("site_id", siteID), zap.String("day", day), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(rep)
}
