package main

import (
	"fmt"
	"strings"

	"loom/internal/render"
	"loom/internal/tree"

	"github.com/spf13/cobra"
)

var (
	treeFlag   string
	parentFlag string
	selectNew  bool
)

// nodeCmd groups node editing and navigation
var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Add, edit, move and navigate nodes of a tree",
	Long: `Node ids may be abbreviated to any unique prefix. Commands act on the
active tree unless --tree is given, and on its current node when a node id
is optional and omitted.`,
}

var nodeAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a child node (default parent: the current node)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNodeAdd,
}

var nodeEditCmd = &cobra.Command{
	Use:   "edit <node-id> <text>",
	Short: "Replace a node's text",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runNodeEdit,
}

var nodeRmCmd = &cobra.Command{
	Use:   "rm <node-id>",
	Short: "Delete a node and its whole branch",
	Args:  cobra.ExactArgs(1),
	RunE:  runNodeRm,
}

var nodeMvCmd = &cobra.Command{
	Use:   "mv <node-id> <new-parent-id>",
	Short: "Move a node (with its branch) under another parent",
	Args:  cobra.ExactArgs(2),
	RunE:  runNodeMv,
}

var nodeSelectCmd = &cobra.Command{
	Use:   "select <node-id>",
	Short: "Move the cursor to a node",
	Args:  cobra.ExactArgs(1),
	RunE:  runNodeSelect,
}

var nodeChildrenCmd = &cobra.Command{
	Use:   "children [node-id]",
	Short: "List the children of a node",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNodeChildren,
}

var nodePathCmd = &cobra.Command{
	Use:   "path [node-id]",
	Short: "List the nodes from the root to a node",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNodePath,
}

func init() {
	nodeCmd.PersistentFlags().StringVarP(&treeFlag, "tree", "t", "", "Tree id (default: the active tree)")
	nodeAddCmd.Flags().StringVarP(&parentFlag, "parent", "p", "", "Parent node id (default: the current node)")
	nodeAddCmd.Flags().BoolVarP(&selectNew, "select", "s", false, "Move the cursor to the new node")

	nodeCmd.AddCommand(nodeAddCmd)
	nodeCmd.AddCommand(nodeEditCmd)
	nodeCmd.AddCommand(nodeRmCmd)
	nodeCmd.AddCommand(nodeMvCmd)
	nodeCmd.AddCommand(nodeSelectCmd)
	nodeCmd.AddCommand(nodeChildrenCmd)
	nodeCmd.AddCommand(nodePathCmd)
}

// withNode opens the app and resolves the tree flag and a node argument.
func withNode(nodeArg string, fn func(a *app, treeID, nodeID string) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	treeID, err := a.resolveTree(treeFlag)
	if err != nil {
		return err
	}
	nodeID, err := a.resolveNode(treeID, nodeArg)
	if err != nil {
		return err
	}
	if err := fn(a, treeID, nodeID); err != nil {
		return err
	}
	return a.saved()
}

func runNodeAdd(cmd *cobra.Command, args []string) error {
	return withNode(parentFlag, func(a *app, treeID, parentID string) error {
		id, ok := a.trees.CreateNode(treeID, strings.Join(args, " "), parentID)
		if !ok {
			return fmt.Errorf("failed to add node under %s", parentID)
		}
		if selectNew {
			a.trees.SetCurrentNode(treeID, id)
		}
		fmt.Println(id)
		return nil
	})
}

func runNodeEdit(cmd *cobra.Command, args []string) error {
	return withNode(args[0], func(a *app, treeID, nodeID string) error {
		a.trees.UpdateNode(treeID, nodeID, tree.SetText(strings.Join(args[1:], " ")))
		return nil
	})
}

func runNodeRm(cmd *cobra.Command, args []string) error {
	return withNode(args[0], func(a *app, treeID, nodeID string) error {
		if n := a.trees.GetNode(treeID, nodeID); n.IsRoot() {
			return fmt.Errorf("cannot delete the root node; use 'loom tree rm' to delete the tree")
		}
		removed := 1 + len(a.trees.Descendants(treeID, nodeID))
		a.trees.DeleteNode(treeID, nodeID)
		fmt.Printf("Deleted %d node(s)\n", removed)
		return nil
	})
}

func runNodeMv(cmd *cobra.Command, args []string) error {
	return withNode(args[0], func(a *app, treeID, nodeID string) error {
		parentID, err := a.resolveNode(treeID, args[1])
		if err != nil {
			return err
		}
		a.trees.ReparentNode(treeID, nodeID, parentID)
		if a.trees.GetNode(treeID, nodeID).ParentID != parentID {
			return fmt.Errorf("cannot move %s under %s", nodeID, parentID)
		}
		return nil
	})
}

func runNodeSelect(cmd *cobra.Command, args []string) error {
	return withNode(args[0], func(a *app, treeID, nodeID string) error {
		a.trees.SetCurrentNode(treeID, nodeID)
		fmt.Println(render.Path(a.trees.GetAncestry(treeID, nodeID), render.DefaultStyles()))
		return nil
	})
}

func runNodeChildren(cmd *cobra.Command, args []string) error {
	return withNode(firstArg(args), func(a *app, treeID, nodeID string) error {
		fmt.Print(render.Children(a.trees.GetChildren(treeID, nodeID), render.DefaultStyles()))
		return nil
	})
}

func runNodePath(cmd *cobra.Command, args []string) error {
	return withNode(firstArg(args), func(a *app, treeID, nodeID string) error {
		fmt.Print(render.Path(a.trees.GetAncestry(treeID, nodeID), render.DefaultStyles()))
		return nil
	})
}
