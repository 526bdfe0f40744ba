package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cuongbtq/jobboard-api/internal/api/domain"
	"github.com/cuongbtq/jobboard-api/internal/api/dto"
	"github.com/cuongbtq/jobboard-api/internal/api/model"
	"github.com/cuongbtq/jobboard-api/internal/events"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// ListJobs handles GET ?resource=jobs, newest first
func (h *ResourceHandler) ListJobs(c *gin.Context) {
	store, err := storageFor(c)
	if err != nil {
		h.fail(c, "No database session", err)
		return
	}

	jobs, err := store.ListJobs(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to list jobs", err)
		return
	}

	resp := make([]dto.JobDTO, len(jobs))
	for i, job := range jobs {
		resp[i] = dto.JobDTO{
			ID:           job.ID,
			Title:        job.Title,
			Requirements: job.Requirements,
			Status:       job.Status,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// CreateJob handles POST {resource: "jobs"}.
// Status falls back to the open-state label.
func (h *ResourceHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		h.fail(c, "Invalid job body", fmt.Errorf("failed to bind job: %w", err))
		return
	}

	store, err := storageFor(c)
	if err != nil {
		h.fail(c, "No database session", err)
		return
	}

	status := domain.JobStatusOpen
	if req.Status != nil {
		status = *req.Status
	}

	id, err := store.CreateJob(c.Request.Context(), *req.Title, *req.Requirements, status)
	if err != nil {
		h.fail(c, "Failed to create job", err)
		return
	}

	h.logger.Info("Job created", slog.Int64("id", id))
	h.publish(c, domain.ResourceJobs, events.ActionCreated, strconv.FormatInt(id, 10))

	c.JSON(http.StatusCreated, dto.CreatedResponse{ID: id, Message: domain.MsgJobCreated})
}

// ReplaceJobs handles PUT {resource: "jobs", jobs: [...]}: the whole table
// is replaced by the given list, ids included.
func (h *ResourceHandler) ReplaceJobs(c *gin.Context) {
	var req dto.ReplaceJobsRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		h.fail(c, "Invalid jobs body", fmt.Errorf("failed to bind jobs: %w", err))
		return
	}

	store, err := storageFor(c)
	if err != nil {
		h.fail(c, "No database session", err)
		return
	}

	jobs := make([]model.Job, len(req.Jobs))
	for i, item := range req.Jobs {
		jobs[i] = model.Job{
			ID:           *item.ID,
			Title:        *item.Title,
			Requirements: *item.Requirements,
			Status:       *item.Status,
		}
	}

	if err := store.ReplaceJobs(c.Request.Context(), jobs); err != nil {
		h.fail(c, "Failed to replace jobs", err)
		return
	}

	h.logger.Info("Jobs replaced", slog.Int("count", len(jobs)))
	h.publish(c, domain.ResourceJobs, events.ActionReplaced, "")

	c.JSON(http.StatusOK, dto.MessageResponse{Message: domain.MsgJobsReplaced})
}

// DeleteJob handles DELETE ?resource=jobs&id=N. Whether a row matched is
// not reported.
func (h *ResourceHandler) DeleteJob(c *gin.Context, id string) {
	store, err := storageFor(c)
	if err != nil {
		h.fail(c, "No database session", err)
		return
	}

	if err := store.DeleteJob(c.Request.Context(), id); err != nil {
		h.fail(c, "Failed to delete job", err)
		return
	}

	h.logger.Info("Job deleted", slog.String("id", id))
	h.publish(c, domain.ResourceJobs, events.ActionDeleted, id)

	c.JSON(http.StatusOK, dto.MessageResponse{Message: domain.MsgJobDeleted})
}
