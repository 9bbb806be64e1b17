package render

import (
	"fmt"
	"strings"

	"loom/internal/tree"

	"github.com/charmbracelet/glamour"
)

// Branch renders the full text of a path (root first) as markdown, wrapped to
// width columns.
func Branch(ancestry []*tree.Node, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := renderer.Render(tree.JoinText(ancestry))
	if err != nil {
		return "", fmt.Errorf("failed to render branch: %w", err)
	}
	return out, nil
}

// Path lists each node on the path with its depth and a text snippet.
func Path(ancestry []*tree.Node, styles Styles) string {
	var sb strings.Builder
	for depth, n := range ancestry {
		fmt.Fprintf(&sb, "%s %s %s\n",
			styles.Muted.Render(fmt.Sprintf("%2d", depth)),
			styles.Bold.Render(n.ID),
			Snippet(n.Text, 60))
	}
	return sb.String()
}

// Children lists the children of a node, numbered from 1.
func Children(children []*tree.Node, styles Styles) string {
	if len(children) == 0 {
		return styles.Muted.Render("(no children)") + "\n"
	}
	var sb strings.Builder
	for i, n := range children {
		fmt.Fprintf(&sb, "%s %s %s\n",
			styles.Muted.Render(fmt.Sprintf("%d.", i+1)),
			styles.Bold.Render(n.ID),
			Snippet(n.Text, 60))
	}
	return sb.String()
}
