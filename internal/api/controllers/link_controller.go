package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"linkbio/internal/models/request_models"
	"linkbio/internal/services"
	"linkbio/pkg/utils"
)

type LinkController struct {
	linkService services.LinkService
}

func NewLinkController(linkService services.LinkService) *LinkController {
	return &LinkController{linkService: linkService}
}

// ListLinks godoc
// @Summary The caller's links with click counts
// @Tags Links
// @Security BearerAuth
// @Success 200 {object} utils.APIResponse
// @Router /links [get]
func (l *LinkController) ListLinks(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	links, err := l.linkService.ListLinks(c.Request.Context(), principal)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, links, "")
}

// AddLink godoc
// @Summary Add a link; free accounts are limited to two
// @Tags Links
// @Accept json
// @Security BearerAuth
// @Param request body request_models.CreateLinkRequest true "Link"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Router /links [post]
func (l *LinkController) AddLink(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req request_models.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	link, err := l.linkService.AddLink(c.Request.Context(), principal, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, link, "Your link has been added")
}

// DeleteLink godoc
// @Summary Delete one of the caller's links
// @Tags Links
// @Security BearerAuth
// @Param id path string true "Link ID"
// @Success 200 {object} utils.APIResponse
// @Router /links/{id} [delete]
func (l *LinkController) DeleteLink(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := l.linkService.DeleteLink(c.Request.Context(), principal, id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Your link has been deleted")
}

// PublicProfile godoc
// @Summary Public profile page data
// @Tags Public
// @Param username path string true "Username"
// @Success 200 {object} utils.APIResponse
// @Router /u/{username} [get]
func (l *LinkController) PublicProfile(c *gin.Context) {
	profile, err := l.linkService.PublicProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, profile, "")
}

// Redirect godoc
// @Summary Log a click and redirect to the link target
// @Tags Public
// @Param link_id path string true "Link ID"
// @Success 302
// @Router /redirect/{link_id} [get]
func (l *LinkController) Redirect(c *gin.Context) {
	id, ok := parseIDParam(c, "link_id")
	if !ok {
		return
	}

	url, err := l.linkService.FollowLink(c.Request.Context(), id, services.Visitor{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
	})
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}
