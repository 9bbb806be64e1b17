package tree

import (
	"encoding/json"
	"fmt"
)

// ExportTree encodes a tree as indented JSON.
func (s *Store) ExportTree(treeID string) (string, error) {
	t, ok := s.trees[treeID]
	if !ok {
		return "", fmt.Errorf("export %s: %w", treeID, ErrTreeNotFound)
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode tree %s: %w", treeID, err)
	}
	return string(data), nil
}

// ImportTree decodes and validates a tree, inserts it (overwriting any tree
// with the same id), makes it active and returns its id.
func (s *Store) ImportTree(data string) (string, error) {
	t, err := ParseTree([]byte(data))
	if err != nil {
		return "", err
	}
	if err := s.LoadTree(t); err != nil {
		return "", err
	}
	return t.ID, nil
}

// ParseTree decodes a single exported tree without inserting it.
func ParseTree(data []byte) (*Tree, error) {
	var t Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTree, err)
	}
	return &t, nil
}
