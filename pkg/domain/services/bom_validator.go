package services

import (
	"fmt"
	"sort"

	"github.com/taechang/production-core/pkg/domain/entities"
)

// BOMValidator provides validation for BOM structure integrity
type BOMValidator struct{}

// NewBOMValidator creates a new BOM validator
func NewBOMValidator() *BOMValidator {
	return &BOMValidator{}
}

// ValidationResult contains the results of BOM validation
type ValidationResult struct {
	HasCycles      bool
	CyclePaths     [][]entities.ItemID
	DuplicateEdges []entities.BOMEdge
	Errors         []string
}

// ValidateBOM performs comprehensive validation on a set of active BOM edges
func (v *BOMValidator) ValidateBOM(edges []entities.BOMEdge) *ValidationResult {
	result := &ValidationResult{
		CyclePaths:     make([][]entities.ItemID, 0),
		DuplicateEdges: make([]entities.BOMEdge, 0),
		Errors:         make([]string, 0),
	}

	adjacencyMap := v.buildAdjacencyMap(edges)

	cycles := v.detectCycles(adjacencyMap)
	result.HasCycles = len(cycles) > 0
	result.CyclePaths = cycles

	result.DuplicateEdges = v.detectDuplicateEdges(edges)

	for _, cycle := range result.CyclePaths {
		result.Errors = append(result.Errors, fmt.Sprintf("BOM cycle detected: %v", cycle))
	}
	if len(result.DuplicateEdges) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Found %d duplicate BOM edges", len(result.DuplicateEdges)))
	}

	return result
}

// WouldCreateCycle reports whether adding parent -> child to the given edges closes a cycle.
// The returned path runs from child back to child through parent when it does.
func (v *BOMValidator) WouldCreateCycle(edges []entities.BOMEdge, parent, child entities.ItemID) ([]entities.ItemID, bool) {
	if parent == child {
		return []entities.ItemID{parent, child}, true
	}
	adjacencyMap := v.buildAdjacencyMap(edges)

	// A cycle appears iff parent is already reachable from child.
	prev := map[entities.ItemID]entities.ItemID{}
	visited := map[entities.ItemID]bool{child: true}
	queue := []entities.ItemID{child}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == parent {
			path := []entities.ItemID{parent}
			for node := parent; node != child; {
				node = prev[node]
				path = append(path, node)
			}
			// path is parent ... child reversed; flip it and close the loop
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return append(path, child), true
		}
		for _, next := range adjacencyMap[current] {
			if !visited[next] {
				visited[next] = true
				prev[next] = current
				queue = append(queue, next)
			}
		}
	}
	return nil, false
}

// buildAdjacencyMap creates a map of parent -> children relationships
func (v *BOMValidator) buildAdjacencyMap(edges []entities.BOMEdge) map[entities.ItemID][]entities.ItemID {
	adjacencyMap := make(map[entities.ItemID][]entities.ItemID)

	for _, edge := range edges {
		if !edge.IsActive {
			continue
		}
		children := adjacencyMap[edge.ParentItemID]

		found := false
		for _, c := range children {
			if c == edge.ChildItemID {
				found = true
				break
			}
		}
		if !found {
			adjacencyMap[edge.ParentItemID] = append(children, edge.ChildItemID)
		}
	}

	return adjacencyMap
}

// detectCycles uses DFS to find cycles in the BOM structure
func (v *BOMValidator) detectCycles(adjacencyMap map[entities.ItemID][]entities.ItemID) [][]entities.ItemID {
	visited := make(map[entities.ItemID]bool)
	recursionStack := make(map[entities.ItemID]bool)
	cycles := make([][]entities.ItemID, 0)

	// Sorted roots keep the reported cycles deterministic
	parents := make([]entities.ItemID, 0, len(adjacencyMap))
	for parent := range adjacencyMap {
		parents = append(parents, parent)
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i] < parents[j] })

	for _, parent := range parents {
		if !visited[parent] {
			v.dfsDetectCycle(parent, adjacencyMap, visited, recursionStack, nil, &cycles)
		}
	}

	return cycles
}

// dfsDetectCycle performs depth-first search to detect cycles
func (v *BOMValidator) dfsDetectCycle(
	current entities.ItemID,
	adjacencyMap map[entities.ItemID][]entities.ItemID,
	visited map[entities.ItemID]bool,
	recursionStack map[entities.ItemID]bool,
	path []entities.ItemID,
	cycles *[][]entities.ItemID,
) {
	visited[current] = true
	recursionStack[current] = true
	path = append(path, current)

	for _, child := range adjacencyMap[current] {
		if !visited[child] {
			v.dfsDetectCycle(child, adjacencyMap, visited, recursionStack, path, cycles)
		} else if recursionStack[child] {
			for i, item := range path {
				if item == child {
					cycle := make([]entities.ItemID, 0, len(path)-i+1)
					cycle = append(cycle, path[i:]...)
					cycle = append(cycle, child)
					*cycles = append(*cycles, cycle)
					break
				}
			}
		}
	}

	recursionStack[current] = false
}

// detectDuplicateEdges finds active edges repeating the same parent and child
func (v *BOMValidator) detectDuplicateEdges(edges []entities.BOMEdge) []entities.BOMEdge {
	type key struct{ parent, child entities.ItemID }
	seen := make(map[key]entities.BOMEdge)
	duplicates := make([]entities.BOMEdge, 0)

	for _, edge := range edges {
		if !edge.IsActive {
			continue
		}
		k := key{edge.ParentItemID, edge.ChildItemID}
		if existing, exists := seen[k]; exists {
			duplicates = append(duplicates, edge, existing)
		} else {
			seen[k] = edge
		}
	}

	return duplicates
}
