package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cuongbtq/jobboard-api/internal/api/domain"
	"github.com/cuongbtq/jobboard-api/internal/api/dto"
	"github.com/cuongbtq/jobboard-api/internal/events"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// ListScreenshots handles GET ?resource=screenshots
func (h *ResourceHandler) ListScreenshots(c *gin.Context) {
	store, err := storageFor(c)
	if err != nil {
		h.fail(c, "No database session", err)
		return
	}

	screenshots, err := store.ListScreenshots(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to list screenshots", err)
		return
	}

	resp := make([]dto.ScreenshotDTO, len(screenshots))
	for i, s := range screenshots {
		resp[i] = dto.ScreenshotDTO{ID: s.ID, URL: s.URL}
	}

	c.JSON(http.StatusOK, resp)
}

// CreateScreenshot handles POST {resource: "screenshots"}
func (h *ResourceHandler) CreateScreenshot(c *gin.Context) {
	var req dto.CreateScreenshotRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		h.fail(c, "Invalid screenshot body", fmt.Errorf("failed to bind screenshot: %w", err))
		return
	}

	store, err := storageFor(c)
	if err != nil {
		h.fail(c, "No database session", err)
		return
	}

	id, err := store.CreateScreenshot(c.Request.Context(), *req.URL)
	if err != nil {
		h.fail(c, "Failed to create screenshot", err)
		return
	}

	h.logger.Info("Screenshot added", slog.Int64("id", id))
	h.publish(c, domain.ResourceScreenshots, events.ActionCreated, strconv.FormatInt(id, 10))

	c.JSON(http.StatusCreated, dto.CreatedResponse{ID: id, Message: domain.MsgScreenshotCreated})
}
