package handler

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/cuongbtq/jobboard-api/internal/api/domain"
	"github.com/cuongbtq/jobboard-api/internal/api/dto"
	"github.com/cuongbtq/jobboard-api/internal/api/model"
	"github.com/cuongbtq/jobboard-api/internal/events"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// ListSettings handles GET ?resource=settings
func (h *ResourceHandler) ListSettings(c *gin.Context) {
	store, err := storageFor(c)
	if err != nil {
		h.fail(c, "No database session", err)
		return
	}

	settings, err := store.ListSettings(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to list settings", err)
		return
	}

	resp := make([]dto.SettingDTO, len(settings))
	for i, s := range settings {
		resp[i] = dto.SettingDTO{Key: s.Key}
		if s.Value.Valid {
			value := s.Value.String
			resp[i].Value = &value
		}
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateSettings handles PUT {resource: "settings", settings: {...}}.
// Keys are applied in sorted order; unknown keys change nothing. A null
// value clears the setting, an object or array value is a fault.
func (h *ResourceHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		h.fail(c, "Invalid settings body", fmt.Errorf("failed to bind settings: %w", err))
		return
	}

	store, err := storageFor(c)
	if err != nil {
		h.fail(c, "No database session", err)
		return
	}

	keys := make([]string, 0, len(req.Settings))
	for key := range req.Settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	settings := make([]model.Setting, len(keys))
	for i, key := range keys {
		settings[i] = model.Setting{Key: key, Value: sql.NullString(req.Settings[key])}
	}

	if err := store.UpdateSettings(c.Request.Context(), settings); err != nil {
		h.fail(c, "Failed to update settings", err)
		return
	}

	h.logger.Info("Settings updated", slog.Int("count", len(settings)))
	h.publish(c, domain.ResourceSettings, events.ActionUpdated, "")

	c.JSON(http.StatusOK, dto.MessageResponse{Message: domain.MsgSettingsUpdated})
}
