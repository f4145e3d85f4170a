package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/sakugabase/config"
	"github.com/d60-Lab/sakugabase/internal/metrics"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
	"github.com/d60-Lab/sakugabase/pkg/logger"
)

// 边的方向标签（相对于被展开的节点）
const (
	EdgeMentorTo   = "mentor_to"
	EdgeMentoredBy = "mentored_by"
)

// GraphCache 图谱结果缓存
type GraphCache interface {
	Get(ctx context.Context, rootID string, depth, maxNodes int, dest any) bool
	Set(ctx context.Context, rootID string, depth, maxNodes int, value any) error
	Bump(ctx context.Context) error
}

type GraphNode struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Depth     int    `json:"depth"`
	IsRoot    bool   `json:"isRoot"`
}

type GraphEdge struct {
	ID           string             `json:"id"`
	Source       string             `json:"source"`
	Target       string             `json:"target"`
	Label        string             `json:"label"`
	RelationType model.RelationType `json:"relationType"`
}

// InfluenceGraph 以 Root 为起点的有界子图
type InfluenceGraph struct {
	Root      string      `json:"root"`
	Depth     int         `json:"depth"`
	MaxNodes  int         `json:"maxNodes"`
	Nodes     []GraphNode `json:"nodes"`
	Edges     []GraphEdge `json:"edges"`
	Truncated bool        `json:"truncated"`
}

type GraphQuery struct {
	Depth    *int
	MaxNodes *int
}

type InfluenceService interface {
	Graph(ctx context.Context, slugOrID string, q GraphQuery) (*InfluenceGraph, error)
}

type influenceService struct {
	animators repository.AnimatorRepository
	relations repository.RelationRepository
	cache     GraphCache
	cfg       config.GraphConfig
}

// NewInfluenceService cache 可为 nil
func NewInfluenceService(animators repository.AnimatorRepository, relations repository.RelationRepository, cache GraphCache, cfg config.GraphConfig) InfluenceService {
	return &influenceService{animators: animators, relations: relations, cache: cache, cfg: cfg}
}

func (s *influenceService) limits(q GraphQuery) (depth, maxNodes int, err error) {
	depth = orDefault(s.cfg.DefaultDepth, 2)
	maxNodes = orDefault(s.cfg.DefaultMaxNodes, 50)
	maxDepth := orDefault(s.cfg.MaxDepth, 3)
	nodeCap := orDefault(s.cfg.MaxNodes, 100)

	var fields []apperrors.FieldError
	if q.Depth != nil {
		depth = *q.Depth
		if depth < 1 || depth > maxDepth {
			fields = append(fields, apperrors.FieldError{Field: "depth", Message: rangeMessage(1, maxDepth)})
		}
	}
	if q.MaxNodes != nil {
		maxNodes = *q.MaxNodes
		if maxNodes < 1 || maxNodes > nodeCap {
			fields = append(fields, apperrors.FieldError{Field: "maxNodes", Message: rangeMessage(1, nodeCap)})
		}
	}
	if len(fields) > 0 {
		return 0, 0, apperrors.Validation("invalid graph parameters", fields...)
	}
	return depth, maxNodes, nil
}

func (s *influenceService) lookup(ctx context.Context, slugOrID string) (*model.Animator, error) {
	a, err := s.animators.GetBySlug(ctx, slugOrID)
	if repository.IsNotFound(err) {
		a, err = s.animators.GetByID(ctx, slugOrID)
	}
	if err != nil {
		return nil, translate(err, "animator")
	}
	return a, nil
}

// Graph 广度优先遍历关系表。
// 节点达到 maxNodes 或深度耗尽后不再展开，已入队节点仍会输出。
func (s *influenceService) Graph(ctx context.Context, slugOrID string, q GraphQuery) (*InfluenceGraph, error) {
	depth, maxNodes, err := s.limits(q)
	if err != nil {
		return nil, err
	}
	root, err := s.lookup(ctx, slugOrID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached InfluenceGraph
		if s.cache.Get(ctx, root.ID, depth, maxNodes, &cached) {
			metrics.GraphCacheLookups.WithLabelValues("hit").Inc()
			return &cached, nil
		}
		metrics.GraphCacheLookups.WithLabelValues("miss").Inc()
	}

	g, err := s.traverse(ctx, root, depth, maxNodes)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, root.ID, depth, maxNodes, g); err != nil {
			logger.Warn("graph cache set failed", zap.String("root", root.ID), zap.Error(err))
		}
	}
	return g, nil
}

type frontierItem struct {
	id    string
	depth int
}

func (s *influenceService) traverse(ctx context.Context, root *model.Animator, depth, maxNodes int) (*InfluenceGraph, error) {
	g := &InfluenceGraph{Root: root.ID, Depth: depth, MaxNodes: maxNodes}

	depthOf := map[string]int{root.ID: 0}
	order := []string{root.ID}
	queue := []frontierItem{{id: root.ID, depth: 0}}
	seenEdges := make(map[string]bool)

	visit := func(id string, d int) bool {
		if _, ok := depthOf[id]; ok {
			return true
		}
		if len(depthOf) >= maxNodes {
			g.Truncated = true
			return false
		}
		depthOf[id] = d
		order = append(order, id)
		queue = append(queue, frontierItem{id: id, depth: d})
		return true
	}
	addEdge := func(rel *model.AnimatorRelation, source, target, label string) {
		if seenEdges[rel.ID] {
			return
		}
		seenEdges[rel.ID] = true
		g.Edges = append(g.Edges, GraphEdge{
			ID:           rel.ID,
			Source:       source,
			Target:       target,
			Label:        label,
			RelationType: rel.RelationType,
		})
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= depth || len(depthOf) >= maxNodes {
			continue
		}

		outgoing, err := s.relations.ListOutgoing(ctx, cur.id)
		if err != nil {
			return nil, err
		}
		for _, rel := range outgoing {
			if visit(rel.ToAnimatorID, cur.depth+1) {
				addEdge(rel, cur.id, rel.ToAnimatorID, EdgeMentorTo)
			}
		}
		incoming, err := s.relations.ListIncoming(ctx, cur.id)
		if err != nil {
			return nil, err
		}
		for _, rel := range incoming {
			if visit(rel.FromAnimatorID, cur.depth+1) {
				addEdge(rel, cur.id, rel.FromAnimatorID, EdgeMentoredBy)
			}
		}
	}

	animators, err := s.animators.GetByIDs(ctx, order)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Animator, len(animators))
	for _, a := range animators {
		byID[a.ID] = a
	}
	g.Nodes = make([]GraphNode, 0, len(order))
	for _, id := range order {
		a, ok := byID[id]
		if !ok {
			continue
		}
		g.Nodes = append(g.Nodes, GraphNode{
			ID:        a.ID,
			Slug:      a.Slug,
			Name:      a.Name,
			AvatarURL: a.AvatarURL,
			Depth:     depthOf[id],
			IsRoot:    id == root.ID,
		})
	}
	if g.Edges == nil {
		g.Edges = []GraphEdge{}
	}
	return g, nil
}
