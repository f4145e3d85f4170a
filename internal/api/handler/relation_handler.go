package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sakugabase/internal/service"
	"github.com/d60-Lab/sakugabase/pkg/response"
)

// AddRelation 建立原画师关系（师承/同事/影响）
// @Summary 新增原画师关系（审核员）
// @Tags 关系链
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "起点原画师ID"
// @Param request body service.RelationInput true "关系信息"
// @Success 201 {object} response.Response{data=model.AnimatorRelation}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/animators/{id}/relations [post]
func (h *Handler) AddRelation(c *gin.Context) {
	var req service.RelationInput
	if !bindJSON(c, &req) {
		return
	}
	rel, err := h.animatorService.AddRelation(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rel)
}

// RemoveRelation 删除原画师关系
// @Summary 删除原画师关系（审核员）
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param id path string true "原画师ID"
// @Param relationId path string true "关系ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/animators/{id}/relations/{relationId} [delete]
func (h *Handler) RemoveRelation(c *gin.Context) {
	if err := h.animatorService.RemoveRelation(c.Request.Context(), actor(c), c.Param("id"), c.Param("relationId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"removed": true})
}

// InfluenceGraph 影响力图谱（广度优先展开）
// @Summary 原画师影响力图谱
// @Tags 关系链
// @Produce json
// @Param id path string true "原画师 slug 或 ID"
// @Param depth query int false "展开深度 1-3" default(2)
// @Param maxNodes query int false "节点上限 1-100" default(50)
// @Success 200 {object} response.Response{data=service.InfluenceGraph}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/animators/{id}/graph [get]
func (h *Handler) InfluenceGraph(c *gin.Context) {
	var q service.GraphQuery
	var ok bool
	if q.Depth, ok = optionalInt(c, "depth"); !ok {
		return
	}
	if q.MaxNodes, ok = optionalInt(c, "maxNodes"); !ok {
		return
	}
	g, err := h.influenceService.Graph(c.Request.Context(), c.Param("id"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, g)
}
