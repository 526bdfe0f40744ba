package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/jobboard-api/internal/api/domain"
	"github.com/cuongbtq/jobboard-api/internal/api/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// Dispatch selects one branch from the HTTP method and the resource
// discriminator. GET and DELETE read "resource" from the query string,
// POST and PUT from the JSON body. Anything unmatched is a 404.
func (h *ResourceHandler) Dispatch(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet:
		h.dispatchGet(c)
	case http.MethodPost:
		h.dispatchPost(c)
	case http.MethodPut:
		h.dispatchPut(c)
	case http.MethodDelete:
		h.dispatchDelete(c)
	default:
		NotFound(c)
	}
}

func (h *ResourceHandler) dispatchGet(c *gin.Context) {
	resource := queryResource(c)
	h.logger.Debug("Dispatching GET", slog.String("resource", resource))

	switch resource {
	case domain.ResourceJobs:
		h.ListJobs(c)
	case domain.ResourceApplications:
		h.ListApplications(c)
	case domain.ResourceScreenshots:
		h.ListScreenshots(c)
	case domain.ResourceSettings:
		h.ListSettings(c)
	default:
		NotFound(c)
	}
}

func (h *ResourceHandler) dispatchPost(c *gin.Context) {
	resource, ok := h.bodyResource(c)
	if !ok {
		return
	}

	switch resource {
	case domain.ResourceJobs:
		h.CreateJob(c)
	case domain.ResourceApplications:
		h.CreateApplication(c)
	case domain.ResourceScreenshots:
		h.CreateScreenshot(c)
	default:
		NotFound(c)
	}
}

func (h *ResourceHandler) dispatchPut(c *gin.Context) {
	resource, ok := h.bodyResource(c)
	if !ok {
		return
	}

	switch resource {
	case domain.ResourceJobs:
		h.ReplaceJobs(c)
	case domain.ResourceSettings:
		h.UpdateSettings(c)
	default:
		NotFound(c)
	}
}

func (h *ResourceHandler) dispatchDelete(c *gin.Context) {
	if id := c.Query("id"); queryResource(c) == domain.ResourceJobs && id != "" {
		h.DeleteJob(c, id)
		return
	}

	NotFound(c)
}

// bodyResource reads the discriminator from the JSON body. The body is
// cached on the context so the branch can bind it again.
func (h *ResourceHandler) bodyResource(c *gin.Context) (string, bool) {
	var env dto.ResourceEnvelope
	if err := c.ShouldBindBodyWith(&env, binding.JSON); err != nil {
		h.fail(c, "Invalid request body", fmt.Errorf("failed to parse request body: %w", err))
		return "", false
	}
	resource, present := env.Name()
	return domain.ResolveResource(resource, present), true
}

func queryResource(c *gin.Context) string {
	resource, present := c.GetQuery("resource")
	return domain.ResolveResource(resource, present)
}
