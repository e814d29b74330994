package controllers

import (
	"github.com/gin-gonic/gin"

	"linkbio/internal/services"
	"linkbio/pkg/utils"
)

type AdminController struct {
	accountService services.AccountServiceInterface
}

func NewAdminController(accountService services.AccountServiceInterface) *AdminController {
	return &AdminController{accountService: accountService}
}

// ListUsers godoc
// @Summary All users with their account type
// @Tags Admin
// @Security BearerAuth
// @Success 200 {object} utils.APIResponse
// @Router /admin/users [get]
func (a *AdminController) ListUsers(c *gin.Context) {
	users, err := a.accountService.ListUsers(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, users, "")
}

// DeleteUser godoc
// @Summary Delete a user and everything they own; admins cannot delete themselves
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Router /admin/users/{id} [delete]
func (a *AdminController) DeleteUser(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := a.accountService.DeleteUser(c.Request.Context(), principal, id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "User has been deleted")
}
