package service

import (
	"context"

	"vidnest/internal/models"
	"vidnest/internal/observability"
	"vidnest/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ThreadAssembler expands comments into bounded reply trees. Expansion is
// breadth first with one query per level. Replies are ordered oldest first;
// root threads keep the order they were listed in.
type ThreadAssembler struct {
	comments  repository.CommentRepository
	projector *Projector
	limits    Limits
}

// NewThreadAssembler creates a ThreadAssembler.
func NewThreadAssembler(comments repository.CommentRepository, projector *Projector, limits Limits) *ThreadAssembler {
	return &ThreadAssembler{comments: comments, projector: projector, limits: limits}
}

// AssembleThread expands rootID maxDepth levels down. Depth 1 holds the
// direct replies. An unknown root is NotFound.
func (a *ThreadAssembler) AssembleThread(ctx context.Context, rootID, viewerID uint, maxDepth int) (*models.CommentNode, error) {
	root, err := a.comments.GetByID(ctx, rootID)
	if err != nil {
		return nil, err
	}
	nodes, err := a.AssembleForest(ctx, []*models.Comment{root}, viewerID, maxDepth)
	if err != nil {
		return nil, err
	}
	return nodes[0], nil
}

// AssembleForest expands several roots at once, preserving their order.
// Nodes on the deepest expanded level report their unexpanded direct replies
// in TruncatedReplyCount.
func (a *ThreadAssembler) AssembleForest(ctx context.Context, roots []*models.Comment, viewerID uint, maxDepth int) (_ []*models.CommentNode, err error) {
	ctx, end := observability.StartSpan(ctx, "thread.assemble",
		attribute.Int("thread.roots", len(roots)),
		attribute.Int("thread.max_depth", maxDepth))
	defer func() { end(err) }()

	if maxDepth < 0 {
		maxDepth = 0
	}

	all := make([]*models.Comment, 0, len(roots))
	all = append(all, roots...)
	children := make(map[uint][]uint)
	frontier := ids(roots)
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		level, err := a.comments.ListChildren(ctx, frontier)
		if err != nil {
			return nil, err
		}
		for _, c := range level {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
		all = append(all, level...)
		frontier = ids(level)
	}
	// whatever is left in frontier sits at maxDepth and was not expanded
	truncated := make(map[uint]bool, len(frontier))
	for _, id := range frontier {
		truncated[id] = true
	}

	allIDs := ids(all)
	nodes, err := a.projector.Comments(ctx, all, viewerID)
	if err != nil {
		return nil, err
	}
	replyCounts, err := a.comments.CountChildren(ctx, allIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*models.CommentNode, len(nodes))
	for _, n := range nodes {
		n.ReplyCount = replyCounts[n.ID]
		if truncated[n.ID] {
			n.TruncatedReplyCount = n.ReplyCount
		}
		byID[n.ID] = n
	}
	for parentID, childIDs := range children {
		parent := byID[parentID]
		for _, id := range childIDs {
			parent.Replies = append(parent.Replies, byID[id])
		}
	}

	observability.ThreadNodes.Observe(float64(len(nodes)))

	out := make([]*models.CommentNode, 0, len(roots))
	for _, r := range roots {
		out = append(out, byID[r.ID])
	}
	return out, nil
}

// RootThreads pages the root comments of a target, most liked first, each
// expanded to depth levels.
func (a *ThreadAssembler) RootThreads(ctx context.Context, kind models.TargetKind, targetID, viewerID uint, req repository.PageRequest, depth int) (models.Page[*models.CommentNode], error) {
	roots, err := a.comments.ListRoots(ctx, kind, targetID, req)
	if err != nil {
		return models.Page[*models.CommentNode]{}, err
	}
	nodes, err := a.AssembleForest(ctx, roots.Items, viewerID, a.limits.Depth(depth))
	if err != nil {
		return models.Page[*models.CommentNode]{}, err
	}
	return models.Page[*models.CommentNode]{
		Items:      nodes,
		Page:       roots.Page,
		Limit:      roots.Limit,
		TotalItems: roots.TotalItems,
		TotalPages: roots.TotalPages,
	}, nil
}

func ids(comments []*models.Comment) []uint {
	out := make([]uint, 0, len(comments))
	for _, c := range comments {
		out = append(out, c.ID)
	}
	return out
}
