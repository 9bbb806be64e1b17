package tree

import (
	"slices"

	"loom/internal/logging"
)

// CreateNode appends a new child under parentID and returns its id. It
// returns false, creating nothing, if the tree or the parent does not exist.
func (s *Store) CreateNode(treeID, text, parentID string) (string, bool) {
	t, ok := s.trees[treeID]
	if !ok {
		return "", false
	}
	parent, ok := t.Nodes[parentID]
	if !ok {
		logging.TreeWarn("CreateNode: parent %s not in tree %s", parentID, treeID)
		return "", false
	}

	now := s.now()
	n := &Node{
		ID:       s.newID(),
		Text:     text,
		ParentID: parentID,
		Children: []string{},
		Created:  now,
		Modified: now,
	}
	t.Nodes[n.ID] = n
	parent.Children = append(parent.Children, n.ID)
	t.Modified = now

	logging.TreeDebug("Created node %s under %s in tree %s", n.ID, parentID, treeID)
	s.commit("CreateNode")
	return n.ID, true
}

// UpdateNode merges the non-nil fields of u into the node and refreshes the
// node and tree modification times.
func (s *Store) UpdateNode(treeID, nodeID string, u NodeUpdate) {
	t, n := s.lookup(treeID, nodeID)
	if n == nil {
		return
	}
	if u.Text != nil {
		n.Text = *u.Text
	}
	now := s.now()
	n.Modified = now
	t.Modified = now
	s.commit("UpdateNode")
}

// DeleteNode detaches a node from its parent and removes it together with
// every descendant. The root cannot be deleted. If the cursor was inside the
// removed branch it moves to the removed node's parent.
func (s *Store) DeleteNode(treeID, nodeID string) {
	t, n := s.lookup(treeID, nodeID)
	if n == nil || nodeID == t.RootID {
		return
	}

	if parent, ok := t.Nodes[n.ParentID]; ok {
		parent.Children = removeID(parent.Children, nodeID)
	}

	removed := append([]string{nodeID}, collectDescendants(t, nodeID)...)
	cursorRemoved := false
	for _, id := range removed {
		if id == t.CurrentNodeID {
			cursorRemoved = true
		}
		delete(t.Nodes, id)
	}
	if cursorRemoved {
		t.CurrentNodeID = n.ParentID
		if _, ok := t.Nodes[t.CurrentNodeID]; !ok {
			t.CurrentNodeID = t.RootID
		}
	}
	t.Modified = s.now()

	logging.Tree("Deleted node %s and %d descendants from tree %s", nodeID, len(removed)-1, treeID)
	s.commit("DeleteNode")
}

// SetCurrentNode moves the navigation cursor.
func (s *Store) SetCurrentNode(treeID, nodeID string) {
	t, n := s.lookup(treeID, nodeID)
	if n == nil || t.CurrentNodeID == nodeID {
		return
	}
	t.CurrentNodeID = nodeID
	s.commit("SetCurrentNode")
}

// ReparentNode moves a node (with its subtree) under newParentID. It is a
// no-op when any id does not resolve, when the node is the root, when the
// node would become its own parent, or when newParentID lies inside the
// node's subtree (which would disconnect a cycle from the root).
func (s *Store) ReparentNode(treeID, nodeID, newParentID string) {
	t, n := s.lookup(treeID, nodeID)
	if n == nil {
		return
	}
	newParent, ok := t.Nodes[newParentID]
	if !ok || nodeID == newParentID || nodeID == t.RootID {
		return
	}
	if isAncestor(t, nodeID, newParentID) {
		logging.TreeWarn("ReparentNode: refusing to move %s under its descendant %s", nodeID, newParentID)
		return
	}

	if oldParent, ok := t.Nodes[n.ParentID]; ok {
		oldParent.Children = removeID(oldParent.Children, nodeID)
	}
	n.ParentID = newParentID
	if !slices.Contains(newParent.Children, nodeID) {
		newParent.Children = append(newParent.Children, nodeID)
	}
	now := s.now()
	n.Modified = now
	t.Modified = now

	logging.TreeDebug("Reparented %s under %s in tree %s", nodeID, newParentID, treeID)
	s.commit("ReparentNode")
}

func (s *Store) lookup(treeID, nodeID string) (*Tree, *Node) {
	t, ok := s.trees[treeID]
	if !ok {
		return nil, nil
	}
	n, ok := t.Nodes[nodeID]
	if !ok {
		return t, nil
	}
	return t, n
}

// isAncestor reports whether ancestorID is on the parent chain of nodeID
// (nodeID itself included).
func isAncestor(t *Tree, ancestorID, nodeID string) bool {
	seen := make(map[string]bool)
	for id := nodeID; id != "" && !seen[id]; {
		if id == ancestorID {
			return true
		}
		seen[id] = true
		n, ok := t.Nodes[id]
		if !ok {
			return false
		}
		id = n.ParentID
	}
	return false
}

// collectDescendants returns every node below nodeID in breadth-first order.
func collectDescendants(t *Tree, nodeID string) []string {
	var out []string
	seen := map[string]bool{nodeID: true}
	queue := []string{nodeID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n, ok := t.Nodes[id]
		if !ok {
			continue
		}
		for _, child := range n.Children {
			if seen[child] {
				continue
			}
			seen[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

func removeID(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(x string) bool { return x == id })
}
