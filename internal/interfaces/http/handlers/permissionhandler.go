package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inventra-labs/gatekeeper/internal/domain/permission"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
	"github.com/inventra-labs/gatekeeper/internal/shared/utils"
)

// PermissionService is the subset of permission.Service used by PermissionHandler.
type PermissionService interface {
	ListRolePermissions(ctx context.Context) (permission.RolePermissionSet, error)
	AvailablePermissions() []permission.Permission
	ReplaceRolePermissions(ctx context.Context, role string, perms []string) error
	AddPermission(ctx context.Context, role, perm string) error
	RemovePermission(ctx context.Context, role, perm string) error
	RefreshCache(ctx context.Context) error
}

type PermissionHandler struct {
	service PermissionService
	logger  logger.Interface
}

func NewPermissionHandler(service PermissionService, logger logger.Interface) *PermissionHandler {
	return &PermissionHandler{
		service: service,
		logger:  logger,
	}
}

type ReplacePermissionsRequest struct {
	Permissions []string `json:"permissions" binding:"required,dive,permission_code"`
}

type PermissionAssignmentRequest struct {
	Role       string `json:"role" binding:"required,role"`
	Permission string `json:"permission" binding:"required,permission_code"`
}

type CategoryResponse struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type AvailablePermissionsResponse struct {
	Permissions []string           `json:"permissions"`
	Categories  []CategoryResponse `json:"categories"`
}

// GetRolePermissions godoc
// @Summary List every role with its permissions
// @Tags permissions
// @Produce json
// @Success 200 {object} utils.APIResponse{data=map[string][]string}
// @Failure 403 {object} utils.APIResponse
// @Router /permissions/roles [get]
func (h *PermissionHandler) GetRolePermissions(c *gin.Context) {
	set, err := h.service.ListRolePermissions(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to list role permissions", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", set.Strings())
}

// GetAvailablePermissions godoc
// @Summary List the permission catalog
// @Tags permissions
// @Produce json
// @Success 200 {object} utils.APIResponse{data=AvailablePermissionsResponse}
// @Router /permissions/available [get]
func (h *PermissionHandler) GetAvailablePermissions(c *gin.Context) {
	perms := h.service.AvailablePermissions()
	resp := AvailablePermissionsResponse{
		Permissions: make([]string, len(perms)),
	}
	for i, p := range perms {
		resp.Permissions[i] = p.String()
	}
	for _, cat := range permission.Categories() {
		entry := CategoryResponse{Name: cat.Name, Permissions: make([]string, len(cat.Permissions))}
		for i, p := range cat.Permissions {
			entry.Permissions[i] = p.String()
		}
		resp.Categories = append(resp.Categories, entry)
	}
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// ReplaceRolePermissions godoc
// @Summary Replace every permission of a role
// @Tags permissions
// @Accept json
// @Produce json
// @Param role path string true "Role"
// @Param request body ReplacePermissionsRequest true "Full permission set"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Router /permissions/roles/{role} [post]
func (h *PermissionHandler) ReplaceRolePermissions(c *gin.Context) {
	var req ReplacePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	role := c.Param("role")
	if err := h.service.ReplaceRolePermissions(c.Request.Context(), role, req.Permissions); err != nil {
		h.logger.Warnw("failed to replace role permissions", "error", err, "role", role)
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "role permissions updated", nil)
}

// AddPermission godoc
// @Summary Grant one permission to a role
// @Tags permissions
// @Accept json
// @Produce json
// @Param request body PermissionAssignmentRequest true "Assignment"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Router /permissions/add [post]
func (h *PermissionHandler) AddPermission(c *gin.Context) {
	var req PermissionAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	if err := h.service.AddPermission(c.Request.Context(), req.Role, req.Permission); err != nil {
		h.logger.Warnw("failed to add permission", "error", err, "role", req.Role, "permission", req.Permission)
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "permission added", nil)
}

// RemovePermission godoc
// @Summary Revoke one permission from a role
// @Tags permissions
// @Accept json
// @Produce json
// @Param request body PermissionAssignmentRequest true "Assignment"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Router /permissions/remove [delete]
func (h *PermissionHandler) RemovePermission(c *gin.Context) {
	var req PermissionAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	if err := h.service.RemovePermission(c.Request.Context(), req.Role, req.Permission); err != nil {
		h.logger.Warnw("failed to remove permission", "error", err, "role", req.Role, "permission", req.Permission)
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "permission removed", nil)
}

// RefreshCache godoc
// @Summary Rebuild the authorization cache from stored role permissions
// @Tags permissions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Router /permissions/refresh-cache [post]
func (h *PermissionHandler) RefreshCache(c *gin.Context) {
	if err := h.service.RefreshCache(c.Request.Context()); err != nil {
		h.logger.Errorw("failed to refresh permission cache", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "permission cache refreshed", nil)
}
