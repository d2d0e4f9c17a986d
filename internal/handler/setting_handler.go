package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-admin-core/internal/dto"
	"github.com/noah-isme/sma-admin-core/internal/models"
	"github.com/noah-isme/sma-admin-core/pkg/response"
)

type settingService interface {
	List(ctx context.Context, actor models.Actor) ([]dto.SettingItem, error)
	Get(ctx context.Context, actor models.Actor, key string) (*dto.SettingItem, error)
	Update(ctx context.Context, actor models.Actor, key string, req dto.UpdateSettingRequest) (*dto.SettingItem, error)
}

// SettingHandler exposes the system settings.
type SettingHandler struct {
	service settingService
}

// NewSettingHandler constructs a SettingHandler.
func NewSettingHandler(svc settingService) *SettingHandler {
	return &SettingHandler{service: svc}
}

// List godoc
// @Summary List settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Get godoc
// @Summary Get setting
// @Tags Settings
// @Produce json
// @Param key path string true "Setting key"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /settings/{key} [get]
func (h *SettingHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), actorFromContext(c), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Update godoc
// @Summary Update setting
// @Tags Settings
// @Accept json
// @Produce json
// @Param key path string true "Setting key"
// @Param payload body dto.UpdateSettingRequest true "New value"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /settings/{key} [put]
func (h *SettingHandler) Update(c *gin.Context) {
	var req dto.UpdateSettingRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Update(c.Request.Context(), actorFromContext(c), c.Param("key"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}
