package tree

import "strings"

// GetCurrentNode returns a copy of the tree's cursor node, or nil.
func (s *Store) GetCurrentNode(treeID string) *Node {
	t, ok := s.trees[treeID]
	if !ok {
		return nil
	}
	return s.GetNode(treeID, t.CurrentNodeID)
}

// GetNode returns a copy of the node, or nil.
func (s *Store) GetNode(treeID, nodeID string) *Node {
	_, n := s.lookup(treeID, nodeID)
	if n == nil {
		return nil
	}
	return n.clone()
}

// GetChildren resolves the node's children in order, skipping ids that no
// longer resolve.
func (s *Store) GetChildren(treeID, nodeID string) []*Node {
	t, n := s.lookup(treeID, nodeID)
	if n == nil {
		return []*Node{}
	}
	out := make([]*Node, 0, len(n.Children))
	for _, id := range n.Children {
		if child, ok := t.Nodes[id]; ok {
			out = append(out, child.clone())
		}
	}
	return out
}

// GetAncestry returns the path from the root down to nodeID, inclusive. The
// walk stops at a missing parent or at a revisited node, so it terminates even
// on a corrupt graph.
func (s *Store) GetAncestry(treeID, nodeID string) []*Node {
	t, ok := s.trees[treeID]
	if !ok {
		return []*Node{}
	}
	var path []*Node
	seen := make(map[string]bool)
	for id := nodeID; id != "" && !seen[id]; {
		n, ok := t.Nodes[id]
		if !ok {
			break
		}
		seen[id] = true
		path = append(path, n.clone())
		id = n.ParentID
	}
	// Collected target-to-root; reverse in place.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	if path == nil {
		return []*Node{}
	}
	return path
}

// Descendants returns the ids of every node below nodeID, breadth first.
func (s *Store) Descendants(treeID, nodeID string) []string {
	t, n := s.lookup(treeID, nodeID)
	if n == nil {
		return nil
	}
	return collectDescendants(t, nodeID)
}

// Depth returns the number of edges from the root to nodeID, or -1.
func (s *Store) Depth(treeID, nodeID string) int {
	return len(s.GetAncestry(treeID, nodeID)) - 1
}

// JoinText concatenates node texts in order, e.g. an ancestry from the root to
// a target node.
func JoinText(nodes []*Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Text)
	}
	return b.String()
}
