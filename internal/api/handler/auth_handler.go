package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sakugabase/internal/service"
	"github.com/d60-Lab/sakugabase/pkg/response"
)

// Register 注册
// @Summary 用户注册
// @Tags 账号
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "注册信息"
// @Success 201 {object} response.Response{data=service.AuthResult}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Login 登录，用户名或邮箱均可
// @Summary 用户登录
// @Tags 账号
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "登录信息"
// @Success 200 {object} response.Response{data=service.AuthResult}
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req service.LoginInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Me 当前用户
// @Summary 当前用户资料
// @Tags 账号
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=model.User}
// @Failure 401 {object} response.Response
// @Router /api/v1/me [get]
func (h *Handler) Me(c *gin.Context) {
	u, err := h.authService.Me(c.Request.Context(), actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}

// MyFavorites 我收藏的片段
// @Summary 我的收藏
// @Tags 账号
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=[]model.Clip,pagination=response.PagePagination}
// @Router /api/v1/me/favorites [get]
func (h *Handler) MyFavorites(c *gin.Context) {
	p, ok := bindPage(c)
	if !ok {
		return
	}
	list, total, err := h.favoriteService.ListClips(c.Request.Context(), actor(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	pageList(c, p, list, total)
}

// SetUserRole 修改用户角色
// @Summary 修改用户角色（管理员）
// @Tags 账号
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "用户ID"
// @Param request body service.RoleInput true "新角色"
// @Success 200 {object} response.Response{data=model.User}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id}/role [put]
func (h *Handler) SetUserRole(c *gin.Context) {
	var req service.RoleInput
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.userService.SetRole(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}
