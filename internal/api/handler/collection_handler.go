package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sakugabase/internal/service"
	"github.com/d60-Lab/sakugabase/pkg/response"
)

// CreateCollection 新建合集
// @Summary 新建合集
// @Tags 合集
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CollectionInput true "合集信息"
// @Success 201 {object} response.Response{data=model.Collection}
// @Router /api/v1/collections [post]
func (h *Handler) CreateCollection(c *gin.Context) {
	var req service.CollectionInput
	if !bindJSON(c, &req) {
		return
	}
	col, err := h.collectionService.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, col)
}

// MyCollections 我的合集
// @Summary 我的合集
// @Tags 合集
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=[]model.Collection,pagination=response.PagePagination}
// @Router /api/v1/me/collections [get]
func (h *Handler) MyCollections(c *gin.Context) {
	p, ok := bindPage(c)
	if !ok {
		return
	}
	list, total, err := h.collectionService.ListMine(c.Request.Context(), actor(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	pageList(c, p, list, total)
}

// GetCollection 合集详情；私有合集仅所有者可见
// @Summary 合集详情
// @Tags 合集
// @Produce json
// @Param id path string true "合集ID"
// @Success 200 {object} response.Response{data=service.CollectionDetail}
// @Failure 404 {object} response.Response
// @Router /api/v1/collections/{id} [get]
func (h *Handler) GetCollection(c *gin.Context) {
	d, err := h.collectionService.Get(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, d)
}

// DeleteCollection 删除合集
// @Summary 删除合集
// @Tags 合集
// @Security BearerAuth
// @Param id path string true "合集ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/collections/{id} [delete]
func (h *Handler) DeleteCollection(c *gin.Context) {
	if err := h.collectionService.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// AddCollectionClip 加入合集（幂等）
// @Summary 片段加入合集
// @Tags 合集
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "合集ID"
// @Param request body service.AddClipInput true "片段"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Router /api/v1/collections/{id}/clips [post]
func (h *Handler) AddCollectionClip(c *gin.Context) {
	var req service.AddClipInput
	if !bindJSON(c, &req) {
		return
	}
	added, err := h.collectionService.AddClip(c.Request.Context(), actor(c), c.Param("id"), req.ClipID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"added": added})
}

// RemoveCollectionClip 移出合集
// @Summary 片段移出合集
// @Tags 合集
// @Security BearerAuth
// @Param id path string true "合集ID"
// @Param clipId path string true "片段ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/collections/{id}/clips/{clipId} [delete]
func (h *Handler) RemoveCollectionClip(c *gin.Context) {
	if err := h.collectionService.RemoveClip(c.Request.Context(), actor(c), c.Param("id"), c.Param("clipId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
