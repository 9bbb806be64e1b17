package render

import (
	"fmt"
	"strings"
	"testing"

	"loom/internal/tree"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStore(t *testing.T) (*tree.Store, string) {
	t.Helper()
	var seq int
	s := tree.NewStore(tree.WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("n%d", seq)
	}))
	treeID := s.CreateTree("Story")
	root := s.GetTree(treeID).RootID
	a, _ := s.CreateNode(treeID, "Once upon a time", root)
	s.CreateNode(treeID, " there was a fox", a)
	b, _ := s.CreateNode(treeID, " there was a dragon", a)
	s.CreateNode(treeID, "Elsewhere", root)
	s.SetCurrentNode(treeID, b)
	return s, treeID
}

func TestTree(t *testing.T) {
	s, treeID := sampleStore(t)
	out := Tree(s.GetTree(treeID), NewStyles(LightTheme()), TreeOptions{ShowIDs: true})

	assert.True(t, strings.HasPrefix(out, "Story\n"))
	assert.Contains(t, out, "(root)")
	assert.Contains(t, out, "Once upon a time")
	assert.Contains(t, out, currentMarker+"there was a dragon")
	assert.Contains(t, out, "[n1]")

	fox := strings.Index(out, "there was a fox")
	dragon := strings.Index(out, "there was a dragon")
	elsewhere := strings.Index(out, "Elsewhere")
	require.True(t, fox > 0 && dragon > 0 && elsewhere > 0)
	assert.Less(t, fox, dragon)
	assert.Less(t, dragon, elsewhere)
}

func TestTree_Nil(t *testing.T) {
	assert.Empty(t, Tree(nil, NewStyles(LightTheme()), TreeOptions{}))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", Snippet("  a\n b\t c ", 10))
	assert.Equal(t, "abcd…", Snippet("abcdefgh", 5))
	assert.Equal(t, "héllo", Snippet("héllo", 5))
	assert.Equal(t, "unbounded", Snippet("unbounded", 0))
}

func TestTreeList(t *testing.T) {
	s, treeID := sampleStore(t)
	s.CreateTree("Second")
	s.SetActiveTree(treeID)

	out := TreeList(s.ListTrees(), NewStyles(LightTheme()))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5, out)
	assert.Contains(t, lines[0], "Trees")
	assert.Contains(t, lines[1], "Name")
	assert.Contains(t, lines[3], "*")
	assert.Contains(t, lines[3], "Story")
	assert.NotContains(t, lines[4], "*")

	assert.Empty(t, TreeList(nil, NewStyles(LightTheme())))
}

func TestPathAndChildren(t *testing.T) {
	s, treeID := sampleStore(t)
	styles := NewStyles(DarkTheme())

	path := Path(s.GetAncestry(treeID, s.GetCurrentNode(treeID).ID), styles)
	assert.Equal(t, 3, strings.Count(path, "\n"))
	assert.Contains(t, path, "there was a dragon")

	root := s.GetTree(treeID).RootID
	kids := Children(s.GetChildren(treeID, root), styles)
	assert.Contains(t, kids, "1.")
	assert.Contains(t, kids, "Elsewhere")
	assert.Contains(t, Children(nil, styles), "no children")
}

func TestBranch(t *testing.T) {
	s, treeID := sampleStore(t)
	out, err := Branch(s.GetAncestry(treeID, s.GetCurrentNode(treeID).ID), 80)
	require.NoError(t, err)
	assert.Contains(t, out, "Once upon a time there was a dragon")
}

func TestDetectTheme(t *testing.T) {
	t.Setenv("LOOM_DARK_MODE", "")
	t.Setenv("COLORFGBG", "15;0")
	assert.True(t, DetectTheme().IsDark)

	t.Setenv("COLORFGBG", "0;15")
	assert.False(t, DetectTheme().IsDark)

	t.Setenv("LOOM_DARK_MODE", "1")
	assert.True(t, DetectTheme().IsDark)
}
