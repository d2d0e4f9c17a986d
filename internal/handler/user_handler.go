package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-admin-core/internal/models"
	"github.com/noah-isme/sma-admin-core/internal/service"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
	"github.com/noah-isme/sma-admin-core/pkg/response"
)

type userService interface {
	List(ctx context.Context, actor models.Actor, filter models.UserFilter) ([]models.UserListItem, *models.Pagination, error)
	Get(ctx context.Context, actor models.Actor, id int64) (*models.UserDetail, error)
	Create(ctx context.Context, actor models.Actor, payload models.UserPayload) (*models.User, error)
	Update(ctx context.Context, actor models.Actor, id int64, payload models.UserPayload) (*models.UserDetail, error)
	Delete(ctx context.Context, actor models.Actor, id int64) error
	ResetPassword(ctx context.Context, actor models.Actor, id int64, password string) (bool, error)
}

type userExporter interface {
	Users(ctx context.Context, actor models.Actor, filter models.UserFilter, format string) (*service.ExportFile, error)
}

// UserHandler handles user CRUD endpoints.
type UserHandler struct {
	service  userService
	exporter userExporter
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService, exporter userExporter) *UserHandler {
	return &UserHandler{service: svc, exporter: exporter}
}

func userFilter(c *gin.Context) models.UserFilter {
	var filter models.UserFilter
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if role := c.Query("role"); role != "" {
		r := models.Role(role)
		filter.Role = &r
	}
	filter.Search = c.Query("search")
	return filter
}

// List godoc
// @Summary List users
// @Description List users with their role and, for students, full name
// @Tags Users
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param role query string false "Role filter"
// @Param search query string false "Username search"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, pagination, err := h.service.List(c.Request.Context(), actorFromContext(c), userFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Get godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	user, err := h.service.Get(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// Create godoc
// @Summary Create user
// @Description Create a user together with its role record
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body models.UserPayload true "User payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var payload models.UserPayload
	if !bindJSON(c, &payload) {
		return
	}
	user, err := h.service.Create(c.Request.Context(), actorFromContext(c), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Update godoc
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param payload body models.UserPayload true "User payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var payload models.UserPayload
	if !bindJSON(c, &payload) {
		return
	}
	user, err := h.service.Update(c.Request.Context(), actorFromContext(c), id, payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// Delete godoc
// @Summary Delete user
// @Tags Users
// @Param id path int true "User ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ResetPassword godoc
// @Summary Reset a user's password
// @Tags Users
// @Accept json
// @Param id path int true "User ID"
// @Param payload body models.ResetPasswordRequest true "New password"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /users/{id}/reset-password [post]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req models.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	reset, err := h.service.ResetPassword(c.Request.Context(), actorFromContext(c), id, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !reset {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "user not found"))
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export users
// @Tags Users
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param role query string false "Role filter"
// @Success 200 {file} file
// @Router /users/export [get]
func (h *UserHandler) Export(c *gin.Context) {
	file, err := h.exporter.Users(c.Request.Context(), actorFromContext(c), userFilter(c), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Download(c, file.Filename, file.ContentType, file.Content)
}
