package codebase

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// SkipChildren can be returned by a WalkFunc to skip a directory's children.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every node in pre-order. Depth starts at 1.
type WalkFunc func(n *Node, depth int) error

// Walk visits the forest in pre-order, stopping at the first error other
// than SkipChildren.
func Walk(forest []*Node, fn WalkFunc) error {
	for _, n := range forest {
		if err := walk(n, 1, fn); err != nil {
			return err
		}
	}
	return nil
}

func walk(n *Node, d int, fn WalkFunc) error {
	if err := fn(n, d); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for _, c := range n.Children {
		if err := walk(c, d+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the node at the given slash-separated path, or nil.
func Find(forest []*Node, path string) *Node {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	level := forest
	var found *Node
	for _, name := range strings.Split(path, "/") {
		found = nil
		for _, n := range level {
			if n.Name == name {
				found = n
				break
			}
		}
		if found == nil {
			return nil
		}
		level = found.Children
	}
	return found
}

// Summary holds aggregate counts for a forest.
type Summary struct {
	Files       int   `json:"files" yaml:"files"`
	Directories int   `json:"directories" yaml:"directories"`
	TotalBytes  int64 `json:"total_bytes" yaml:"total_bytes"`
	MaxDepth    int   `json:"max_depth" yaml:"max_depth"`
}

// Stats counts the files and directories in a forest.
func Stats(forest []*Node) Summary {
	var s Summary
	_ = Walk(forest, func(n *Node, d int) error {
		if n.IsDir() {
			s.Directories++
		} else {
			s.Files++
			if n.Size != nil {
				s.TotalBytes += *n.Size
			}
		}
		if d > s.MaxDepth {
			s.MaxDepth = d
		}
		return nil
	})
	return s
}

// SortOrder controls how children are ordered by Sort.
type SortOrder string

const (
	SortNone      SortOrder = "none"
	SortName      SortOrder = "name"
	SortDirsFirst SortOrder = "dirs-first"
)

// ParseSortOrder validates a sort order name. An empty name means SortNone.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "", SortNone:
		return SortNone, nil
	case SortName, SortDirsFirst:
		return SortOrder(s), nil
	}
	return "", fmt.Errorf("unknown sort order %q (want none, name or dirs-first)", s)
}

// Sort orders the forest and every children list in place.
func Sort(forest []*Node, order SortOrder) {
	if order == SortNone || order == "" {
		return
	}
	sortLevel(forest, order)
}

func sortLevel(nodes []*Node, order SortOrder) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if order == SortDirsFirst && nodes[i].IsDir() != nodes[j].IsDir() {
			return nodes[i].IsDir()
		}
		return nodes[i].Name < nodes[j].Name
	})
	for _, n := range nodes {
		if len(n.Children) > 0 {
			sortLevel(n.Children, order)
		}
	}
}

// Filter returns a pruned deep copy of the forest. maxDepth <= 0 keeps all
// levels; includeFiles false drops every file node.
func Filter(forest []*Node, maxDepth int, includeFiles bool) []*Node {
	return filterLevel(forest, 1, maxDepth, includeFiles)
}

func filterLevel(nodes []*Node, d, maxDepth int, includeFiles bool) []*Node {
	out := []*Node{}
	if maxDepth > 0 && d > maxDepth {
		return out
	}
	for _, n := range nodes {
		if !n.IsDir() && !includeFiles {
			continue
		}
		cp := *n
		if n.IsDir() {
			cp.Children = filterLevel(n.Children, d+1, maxDepth, includeFiles)
		}
		out = append(out, &cp)
	}
	return out
}
