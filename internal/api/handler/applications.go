package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cuongbtq/jobboard-api/internal/api/domain"
	"github.com/cuongbtq/jobboard-api/internal/api/dto"
	"github.com/cuongbtq/jobboard-api/internal/events"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// ListApplications handles GET ?resource=applications
func (h *ResourceHandler) ListApplications(c *gin.Context) {
	store, err := storageFor(c)
	if err != nil {
		h.fail(c, "No database session", err)
		return
	}

	apps, err := store.ListApplications(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to list applications", err)
		return
	}

	resp := make([]dto.ApplicationDTO, len(apps))
	for i, app := range apps {
		resp[i] = dto.ApplicationDTO{
			ID:        app.ID,
			JobTitle:  app.JobTitle,
			VK:        app.VK,
			Age:       app.Age,
			CreatedAt: app.CreatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, resp)
}

// CreateApplication handles POST {resource: "applications"}
func (h *ResourceHandler) CreateApplication(c *gin.Context) {
	var req dto.CreateApplicationRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		h.fail(c, "Invalid application body", fmt.Errorf("failed to bind application: %w", err))
		return
	}

	store, err := storageFor(c)
	if err != nil {
		h.fail(c, "No database session", err)
		return
	}

	id, err := store.CreateApplication(c.Request.Context(), *req.JobTitle, *req.VK, *req.Age)
	if err != nil {
		h.fail(c, "Failed to create application", err)
		return
	}

	h.logger.Info("Application submitted",
		slog.Int64("id", id),
		slog.String("job_title", *req.JobTitle),
	)
	h.publish(c, domain.ResourceApplications, events.ActionCreated, strconv.FormatInt(id, 10))

	c.JSON(http.StatusCreated, dto.CreatedResponse{ID: id, Message: domain.MsgApplicationCreated})
}
