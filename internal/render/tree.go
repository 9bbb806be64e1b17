package render

import (
	"strings"
	"unicode/utf8"

	"loom/internal/tree"

	ltree "github.com/charmbracelet/lipgloss/tree"
)

const currentMarker = "● "

// TreeOptions controls Tree output.
type TreeOptions struct {
	MaxLabel int  // truncate node text to this many runes; 0 means 60
	ShowIDs  bool // append node ids
}

// Tree draws the node hierarchy of t with the current node highlighted.
func Tree(t *tree.Tree, styles Styles, opts TreeOptions) string {
	if t == nil {
		return ""
	}
	if opts.MaxLabel <= 0 {
		opts.MaxLabel = 60
	}
	root, ok := t.Nodes[t.RootID]
	if !ok {
		return ""
	}
	header := styles.Title.Render(t.Name)
	return header + "\n" + buildTree(t, root, styles, opts, map[string]bool{}).String()
}

func buildTree(t *tree.Tree, n *tree.Node, styles Styles, opts TreeOptions, seen map[string]bool) *ltree.Tree {
	seen[n.ID] = true
	lt := ltree.Root(nodeLabel(t, n, styles, opts)).
		Enumerator(ltree.RoundedEnumerator).
		EnumeratorStyle(styles.Branch)

	for _, id := range n.Children {
		child, ok := t.Nodes[id]
		if !ok || seen[id] {
			continue
		}
		if len(child.Children) == 0 {
			seen[id] = true
			lt.Child(nodeLabel(t, child, styles, opts))
			continue
		}
		lt.Child(buildTree(t, child, styles, opts, seen))
	}
	return lt
}

func nodeLabel(t *tree.Tree, n *tree.Node, styles Styles, opts TreeOptions) string {
	text := Snippet(n.Text, opts.MaxLabel)
	switch {
	case text == "" && n.IsRoot():
		text = styles.Muted.Render("(root)")
	case text == "":
		text = styles.Muted.Render("(empty)")
	}

	label := text
	if n.ID == t.CurrentNodeID {
		label = styles.Current.Render(currentMarker + text)
	}
	if opts.ShowIDs {
		label += " " + styles.Muted.Render("["+n.ID+"]")
	}
	return label
}

// Snippet collapses whitespace and truncates s to limit runes with an ellipsis.
func Snippet(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}
