package tree

import "fmt"

// ValidateTree checks the structural invariants of a tree:
//
//   - every node is keyed by its own id
//   - the root exists and has no parent
//   - every other node's parent exists and lists it exactly once
//   - every child id resolves to a node naming this parent
//   - the cursor resolves
//   - every node is reachable from the root
//
// Failures wrap ErrInvalidTree.
func ValidateTree(t *Tree) error {
	if t == nil {
		return fmt.Errorf("%w: nil tree", ErrInvalidTree)
	}
	if t.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTree)
	}
	root, ok := t.Nodes[t.RootID]
	if !ok || root == nil {
		return fmt.Errorf("%w: root %q not found", ErrInvalidTree, t.RootID)
	}
	if !root.IsRoot() {
		return fmt.Errorf("%w: root %s has parent %s", ErrInvalidTree, root.ID, root.ParentID)
	}

	for key, n := range t.Nodes {
		if n == nil {
			return fmt.Errorf("%w: node %s is null", ErrInvalidTree, key)
		}
		if n.ID != key {
			return fmt.Errorf("%w: node keyed %s has id %s", ErrInvalidTree, key, n.ID)
		}
		if key != t.RootID {
			if n.IsRoot() {
				return fmt.Errorf("%w: node %s has no parent but is not the root", ErrInvalidTree, key)
			}
			parent, ok := t.Nodes[n.ParentID]
			if !ok || parent == nil {
				return fmt.Errorf("%w: node %s has unknown parent %s", ErrInvalidTree, key, n.ParentID)
			}
			if count(parent.Children, key) != 1 {
				return fmt.Errorf("%w: parent %s lists node %s %d times", ErrInvalidTree, n.ParentID, key, count(parent.Children, key))
			}
		}
		for _, c := range n.Children {
			child, ok := t.Nodes[c]
			if !ok || child == nil {
				return fmt.Errorf("%w: node %s has unknown child %s", ErrInvalidTree, key, c)
			}
			if child.ParentID != key {
				return fmt.Errorf("%w: child %s of %s names parent %s", ErrInvalidTree, c, key, child.ParentID)
			}
		}
	}

	if _, ok := t.Nodes[t.CurrentNodeID]; !ok {
		return fmt.Errorf("%w: current node %q not found", ErrInvalidTree, t.CurrentNodeID)
	}

	// Parent links are consistent at this point, so anything unreachable from
	// the root sits on a detached cycle.
	if reached := len(collectDescendants(t, t.RootID)) + 1; reached != len(t.Nodes) {
		return fmt.Errorf("%w: %d of %d nodes unreachable from root", ErrInvalidTree, len(t.Nodes)-reached, len(t.Nodes))
	}
	return nil
}

func count(ids []string, id string) int {
	n := 0
	for _, x := range ids {
		if x == id {
			n++
		}
	}
	return n
}
