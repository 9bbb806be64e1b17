package tree

import "encoding/json"

// Node is one unit of text in a tree. The root has an empty ParentID.
type Node struct {
	ID       string
	Text     string
	ParentID string
	Children []string // attachment order
	Created  int64    // Unix milliseconds
	Modified int64
}

// nodeJSON is the wire form; parentId is null for the root.
type nodeJSON struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	ParentID *string  `json:"parentId"`
	Children []string `json:"children"`
	Created  int64    `json:"created"`
	Modified int64    `json:"modified"`
}

// MarshalJSON encodes an empty ParentID as null and nil Children as [].
func (n Node) MarshalJSON() ([]byte, error) {
	w := nodeJSON{
		ID:       n.ID,
		Text:     n.Text,
		Children: n.Children,
		Created:  n.Created,
		Modified: n.Modified,
	}
	if n.ParentID != "" {
		parent := n.ParentID
		w.ParentID = &parent
	}
	if w.Children == nil {
		w.Children = []string{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts a null or missing parentId as the root marker.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*n = Node{
		ID:       w.ID,
		Text:     w.Text,
		Children: w.Children,
		Created:  w.Created,
		Modified: w.Modified,
	}
	if w.ParentID != nil {
		n.ParentID = *w.ParentID
	}
	if n.Children == nil {
		n.Children = []string{}
	}
	return nil
}

func (n *Node) clone() *Node {
	c := *n
	c.Children = append(make([]string, 0, len(n.Children)), n.Children...)
	return &c
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == ""
}

// Tree is one branching document: a set of nodes under a single root, plus the
// navigation cursor.
type Tree struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	RootID        string           `json:"rootId"`
	Nodes         map[string]*Node `json:"nodes"`
	CurrentNodeID string           `json:"currentNodeId"`
	Created       int64            `json:"created"`
	Modified      int64            `json:"modified"`
}

// Clone returns a deep copy.
func (t *Tree) Clone() *Tree {
	c := *t
	c.Nodes = make(map[string]*Node, len(t.Nodes))
	for id, n := range t.Nodes {
		if n == nil {
			continue
		}
		c.Nodes[id] = n.clone()
	}
	return &c
}

// Summary describes a tree without its nodes.
type Summary struct {
	ID        string
	Name      string
	NodeCount int
	Created   int64
	Modified  int64
	Active    bool
}

// NodeUpdate carries the fields UpdateNode merges into a node; nil fields are
// left unchanged.
type NodeUpdate struct {
	Text *string
}

// SetText builds a NodeUpdate that replaces the text.
func SetText(s string) NodeUpdate {
	return NodeUpdate{Text: &s}
}

// SnapshotVersion is the current persisted snapshot format.
const SnapshotVersion = 1

// Snapshot is the persisted state of a Store.
type Snapshot struct {
	Version      int
	Trees        map[string]*Tree
	ActiveTreeID string
}

type snapshotJSON struct {
	Version      int              `json:"version"`
	Trees        map[string]*Tree `json:"trees"`
	ActiveTreeID *string          `json:"activeTreeId"`
}

// MarshalJSON encodes an empty ActiveTreeID as null.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	w := snapshotJSON{Version: s.Version, Trees: s.Trees}
	if w.Trees == nil {
		w.Trees = map[string]*Tree{}
	}
	if s.ActiveTreeID != "" {
		active := s.ActiveTreeID
		w.ActiveTreeID = &active
	}
	return json.Marshal(w)
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w snapshotJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Snapshot{Version: w.Version, Trees: w.Trees}
	if w.ActiveTreeID != nil {
		s.ActiveTreeID = *w.ActiveTreeID
	}
	return nil
}
