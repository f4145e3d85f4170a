package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sakugabase/internal/service"
	"github.com/d60-Lab/sakugabase/pkg/pagination"
	"github.com/d60-Lab/sakugabase/pkg/response"
)

func bindWindow(c *gin.Context) (pagination.Window, bool) {
	var w pagination.Window
	if err := c.ShouldBindQuery(&w); err != nil {
		response.ValidationFailed(c, err)
		return w, false
	}
	return w.Normalize(service.RankingDefaultLimit, service.RankingMaxLimit), true
}

// RankAnimators 原画师社区排行
// @Summary 原画师排行（票数、收藏数）
// @Tags 排行
// @Produce json
// @Param limit query int false "数量 1-50" default(20)
// @Param offset query int false "偏移" default(0)
// @Success 200 {object} response.Response{data=[]model.Animator,pagination=response.OffsetPagination}
// @Router /api/v1/rankings/animators [get]
func (h *Handler) RankAnimators(c *gin.Context) {
	w, ok := bindWindow(c)
	if !ok {
		return
	}
	list, total, err := h.rankingService.Animators(c.Request.Context(), w)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, list, response.NewOffsetPagination(w.Offset, w.Limit, total))
}

// RankClips 片段社区排行
// @Summary 片段排行（票数、收藏数）
// @Tags 排行
// @Produce json
// @Param limit query int false "数量 1-50" default(20)
// @Param offset query int false "偏移" default(0)
// @Success 200 {object} response.Response{data=[]model.Clip,pagination=response.OffsetPagination}
// @Router /api/v1/rankings/clips [get]
func (h *Handler) RankClips(c *gin.Context) {
	w, ok := bindWindow(c)
	if !ok {
		return
	}
	list, total, err := h.rankingService.Clips(c.Request.Context(), w)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, list, response.NewOffsetPagination(w.Offset, w.Limit, total))
}
