package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/internal/service"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
	"github.com/d60-Lab/sakugabase/pkg/response"
)

// ListClips 片段列表
// @Summary 片段列表
// @Tags 片段
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量，超过 100 按 100" default(20)
// @Param q query string false "标题/作品关键字"
// @Param animator query string false "原画师 slug"
// @Param status query string false "审核状态（仅审核员）" Enums(PENDING, APPROVED, REJECTED)
// @Param sort query string false "排序" Enums(recent, popular, favorites)
// @Success 200 {object} response.Response{data=[]service.ClipDetail,pagination=response.PagePagination}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/clips [get]
func (h *Handler) ListClips(c *gin.Context) {
	p, ok := bindPage(c)
	if !ok {
		return
	}
	status := model.SubmissionStatus(c.Query("status"))
	switch status {
	case "", model.StatusPending, model.StatusApproved, model.StatusRejected:
	default:
		response.Error(c, apperrors.Validation("invalid request parameters",
			apperrors.FieldError{Field: "status", Message: "must be one of: PENDING APPROVED REJECTED"}))
		return
	}
	sort := repository.ClipSort(c.Query("sort"))
	switch sort {
	case "", repository.SortRecent, repository.SortPopular, repository.SortFavorites:
	default:
		response.Error(c, apperrors.Validation("invalid request parameters",
			apperrors.FieldError{Field: "sort", Message: "must be one of: recent popular favorites"}))
		return
	}

	list, total, err := h.clipService.List(c.Request.Context(), actor(c), service.ClipListQuery{
		Page:     p,
		Query:    c.Query("q"),
		Animator: c.Query("animator"),
		Status:   status,
		Sort:     sort,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	pageList(c, p, list, total)
}

// TrendingClips 热门片段
// @Summary 热门片段（热度随时间衰减）
// @Tags 片段
// @Produce json
// @Param limit query int false "数量 1-50" default(12)
// @Param offset query int false "偏移" default(0)
// @Param windowDays query int false "时间窗口 1-90 天" default(30)
// @Success 200 {object} response.Response{data=[]service.TrendingClip,pagination=response.OffsetPagination}
// @Failure 400 {object} response.Response
// @Router /api/v1/clips/trending [get]
func (h *Handler) TrendingClips(c *gin.Context) {
	var q service.TrendingQuery
	var ok bool
	if q.Limit, ok = optionalInt(c, "limit"); !ok {
		return
	}
	if q.Offset, ok = optionalInt(c, "offset"); !ok {
		return
	}
	if q.WindowDays, ok = optionalInt(c, "windowDays"); !ok {
		return
	}
	page, err := h.trendingService.Trending(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, page.Items, response.NewOffsetPagination(page.Offset, page.Limit, page.Total))
}

// GetClip 片段详情（:id 位置为 slug）
// @Summary 片段详情
// @Tags 片段
// @Produce json
// @Param id path string true "片段 slug"
// @Success 200 {object} response.Response{data=service.ClipDetail}
// @Failure 404 {object} response.Response
// @Router /api/v1/clips/{id} [get]
func (h *Handler) GetClip(c *gin.Context) {
	a := actor(c)
	d, err := h.clipService.GetBySlug(c.Request.Context(), a, c.Param("id"), viewerKey(c, a))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, d)
}

// SubmitClip 投稿，进入待审核
// @Summary 投稿片段
// @Tags 片段
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.SubmitClipInput true "片段信息"
// @Success 201 {object} response.Response{data=model.Clip}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/clips [post]
func (h *Handler) SubmitClip(c *gin.Context) {
	var req service.SubmitClipInput
	if !bindJSON(c, &req) {
		return
	}
	clip, err := h.clipService.Submit(c.Request.Context(), actor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, clip)
}

// Search 全站搜索
// @Summary 搜索片段与原画师
// @Tags 片段
// @Produce json
// @Param q query string true "关键字"
// @Success 200 {object} response.Response{data=service.SearchResult}
// @Failure 400 {object} response.Response
// @Router /api/v1/search [get]
func (h *Handler) Search(c *gin.Context) {
	res, err := h.clipService.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// ModerateClip 审核片段
// @Summary 审核片段（通过/驳回）
// @Tags 审核
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "片段ID"
// @Param request body service.ModerateInput true "审核动作"
// @Success 200 {object} response.Response{data=service.ModerationResult}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/clips/{id}/moderate [post]
func (h *Handler) ModerateClip(c *gin.Context) {
	var req service.ModerateInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.moderationService.Moderate(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// ModerationQueue 待审核队列
// @Summary 待审核片段（先提交先审）
// @Tags 审核
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=[]model.Clip,pagination=response.PagePagination}
// @Failure 403 {object} response.Response
// @Router /api/v1/moderation/queue [get]
func (h *Handler) ModerationQueue(c *gin.Context) {
	p, ok := bindPage(c)
	if !ok {
		return
	}
	list, total, err := h.moderationService.Queue(c.Request.Context(), actor(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	pageList(c, p, list, total)
}

// ToggleClipFavorite 收藏/取消收藏
// @Summary 切换片段收藏
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param id path string true "片段ID"
// @Success 200 {object} response.Response{data=service.ToggleResult}
// @Failure 404 {object} response.Response
// @Router /api/v1/clips/{id}/favorite [post]
func (h *Handler) ToggleClipFavorite(c *gin.Context) {
	res, err := h.favoriteService.ToggleClip(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// VoteClip 投票
// @Summary 片段投票（1/-1，0 撤销）
// @Tags 互动
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "片段ID"
// @Param request body service.VoteInput true "票值"
// @Success 200 {object} response.Response{data=service.VoteResult}
// @Router /api/v1/clips/{id}/vote [post]
func (h *Handler) VoteClip(c *gin.Context) {
	h.vote(c, model.VoteTargetClip)
}

func (h *Handler) vote(c *gin.Context, target model.VoteTarget) {
	var req service.VoteInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.voteService.Vote(c.Request.Context(), actor(c), target, c.Param("id"), *req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// ListComments 评论列表
// @Summary 片段评论（从早到晚）
// @Tags 互动
// @Produce json
// @Param id path string true "片段ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=[]model.Comment,pagination=response.PagePagination}
// @Router /api/v1/clips/{id}/comments [get]
func (h *Handler) ListComments(c *gin.Context) {
	p, ok := bindPage(c)
	if !ok {
		return
	}
	list, total, err := h.commentService.List(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	pageList(c, p, list, total)
}

// CreateComment 发表评论
// @Summary 发表评论
// @Tags 互动
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "片段ID"
// @Param request body service.CommentInput true "评论内容"
// @Success 201 {object} response.Response{data=model.Comment}
// @Router /api/v1/clips/{id}/comments [post]
func (h *Handler) CreateComment(c *gin.Context) {
	var req service.CommentInput
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.commentService.Create(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}
