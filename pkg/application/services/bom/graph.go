package bom

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/taechang/production-core/pkg/domain/entities"
	"github.com/taechang/production-core/pkg/domain/repositories"
)

// DefaultMaxDepth bounds explosion depth when no explicit cap is configured
const DefaultMaxDepth = 50

type color uint8

const (
	white color = iota // not visited
	gray               // on the current path
	black              // fully explored
)

type arc struct {
	child int
	edge  *entities.BOMEdge
}

type node struct {
	item  *entities.Item
	arcs  []arc
	color color
	level int
	pred  int
	total decimal.Decimal
}

// graph is the index-based adjacency structure reachable from one root.
// Node 0 is always the root.
type graph struct {
	nodes     []node
	index     map[entities.ItemID]int
	postorder []int
}

type frame struct {
	node int
	next int
}

// loadGraph walks the BOM below root, reading each item and its child edges once.
// A child that is already on the current path is a cycle and aborts the walk.
func loadGraph(
	ctx context.Context,
	items repositories.ItemReader,
	edges repositories.EdgeReader,
	root entities.ItemID,
	maxDepth int,
) (*graph, error) {
	rootItem, err := items.GetItem(ctx, root)
	if err != nil {
		return nil, err
	}

	g := &graph{index: make(map[entities.ItemID]int)}
	if err := g.add(ctx, edges, rootItem); err != nil {
		return nil, err
	}

	stack := []frame{{node: 0}}
	g.nodes[0].color = gray

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		top := &stack[len(stack)-1]
		current := &g.nodes[top.node]
		if top.next == len(current.arcs) {
			current.color = black
			g.postorder = append(g.postorder, top.node)
			stack = stack[:len(stack)-1]
			continue
		}

		childEdge := current.arcs[top.next].edge
		top.next++

		childIdx, known := g.index[childEdge.ChildItemID]
		if !known {
			childItem, err := items.GetItem(ctx, childEdge.ChildItemID)
			if err != nil {
				return nil, fmt.Errorf("component of item %d: %w", childEdge.ParentItemID, err)
			}
			if err := g.add(ctx, edges, childItem); err != nil {
				return nil, err
			}
			childIdx = len(g.nodes) - 1
		}
		// Resolve the arc target now that the child has an index.
		current = &g.nodes[top.node]
		current.arcs[top.next-1].child = childIdx

		switch g.nodes[childIdx].color {
		case gray:
			return nil, &entities.CircularBOMError{Path: g.cyclePath(stack, childIdx)}
		case black:
			continue
		}

		if len(stack) > maxDepth {
			path := g.stackPath(stack)
			path = append(path, g.nodes[childIdx].item.ItemID)
			return nil, &entities.BOMDepthExceededError{MaxDepth: maxDepth, Path: path}
		}
		g.nodes[childIdx].color = gray
		stack = append(stack, frame{node: childIdx})
	}
	return g, nil
}

func (g *graph) add(ctx context.Context, edges repositories.EdgeReader, item *entities.Item) error {
	childEdges, err := edges.GetChildEdges(ctx, item.ItemID)
	if err != nil {
		return fmt.Errorf("failed to get BOM for item %d: %w", item.ItemID, err)
	}
	arcs := make([]arc, 0, len(childEdges))
	for _, e := range childEdges {
		if !e.IsActive {
			continue
		}
		arcs = append(arcs, arc{child: -1, edge: e})
	}
	g.index[item.ItemID] = len(g.nodes)
	g.nodes = append(g.nodes, node{item: item, arcs: arcs, pred: -1, total: decimal.Zero})
	return nil
}

func (g *graph) stackPath(stack []frame) []entities.ItemID {
	path := make([]entities.ItemID, 0, len(stack)+1)
	for _, f := range stack {
		path = append(path, g.nodes[f.node].item.ItemID)
	}
	return path
}

// cyclePath returns the ancestor chain from the repeated node back to itself
func (g *graph) cyclePath(stack []frame, repeated int) []entities.ItemID {
	start := 0
	for i, f := range stack {
		if f.node == repeated {
			start = i
			break
		}
	}
	path := g.stackPath(stack[start:])
	return append(path, g.nodes[repeated].item.ItemID)
}

// accumulate propagates quantities from the root in topological order so that
// every node receives the sum of its contributions over all paths. It also
// assigns each node its longest distance from the root.
func (g *graph) accumulate(quantity decimal.Decimal, maxDepth int) error {
	g.nodes[0].total = quantity
	for i := len(g.postorder) - 1; i >= 0; i-- {
		u := g.postorder[i]
		parent := &g.nodes[u]
		for _, a := range parent.arcs {
			child := &g.nodes[a.child]
			child.total = child.total.Add(parent.total.Mul(a.edge.QuantityRequired))
			if parent.level+1 > child.level {
				child.level = parent.level + 1
				child.pred = u
			}
		}
	}

	for i := range g.nodes {
		if g.nodes[i].level > maxDepth {
			return &entities.BOMDepthExceededError{MaxDepth: maxDepth, Path: g.longestPath(i)}
		}
	}
	return nil
}

func (g *graph) longestPath(target int) []entities.ItemID {
	var reversed []entities.ItemID
	for n := target; n >= 0; n = g.nodes[n].pred {
		reversed = append(reversed, g.nodes[n].item.ItemID)
	}
	path := make([]entities.ItemID, len(reversed))
	for i, id := range reversed {
		path[len(reversed)-1-i] = id
	}
	return path
}
