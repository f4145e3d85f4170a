package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/service"
	"github.com/d60-Lab/sakugabase/pkg/response"
)

// ListAnimators 原画师列表
// @Summary 原画师列表
// @Tags 原画师
// @Produce json
// @Param q query string false "姓名关键字"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=[]model.Animator,pagination=response.PagePagination}
// @Router /api/v1/animators [get]
func (h *Handler) ListAnimators(c *gin.Context) {
	p, ok := bindPage(c)
	if !ok {
		return
	}
	list, total, err := h.animatorService.List(c.Request.Context(), c.Query("q"), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	pageList(c, p, list, total)
}

// GetAnimator 原画师档案（:id 位置为 slug）
// @Summary 原画师档案
// @Tags 原画师
// @Produce json
// @Param id path string true "原画师 slug"
// @Success 200 {object} response.Response{data=service.AnimatorProfile}
// @Failure 404 {object} response.Response
// @Router /api/v1/animators/{id} [get]
func (h *Handler) GetAnimator(c *gin.Context) {
	p, err := h.animatorService.GetBySlug(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, p)
}

// CreateAnimator 新建原画师
// @Summary 新建原画师（审核员）
// @Tags 原画师
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.AnimatorInput true "原画师信息"
// @Success 201 {object} response.Response{data=model.Animator}
// @Failure 403 {object} response.Response
// @Router /api/v1/animators [post]
func (h *Handler) CreateAnimator(c *gin.Context) {
	var req service.AnimatorInput
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.animatorService.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, a)
}

// ToggleAnimatorFavorite 收藏/取消收藏原画师
// @Summary 切换原画师收藏
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param id path string true "原画师ID"
// @Success 200 {object} response.Response{data=service.ToggleResult}
// @Router /api/v1/animators/{id}/favorite [post]
func (h *Handler) ToggleAnimatorFavorite(c *gin.Context) {
	res, err := h.favoriteService.ToggleAnimator(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// VoteAnimator 原画师投票
// @Summary 原画师投票（1/-1，0 撤销）
// @Tags 互动
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "原画师ID"
// @Param request body service.VoteInput true "票值"
// @Success 200 {object} response.Response{data=service.VoteResult}
// @Router /api/v1/animators/{id}/vote [post]
func (h *Handler) VoteAnimator(c *gin.Context) {
	h.vote(c, model.VoteTargetAnimator)
}
