package main

import (
	"fmt"

	"loom/internal/render"
	"loom/internal/tree"

	"github.com/spf13/cobra"
)

var (
	readPlain bool
	readWidth int
)

// readCmd prints the full text of a branch
var readCmd = &cobra.Command{
	Use:   "read [node-id]",
	Short: "Print the text from the root down to a node (default: the current node)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRead,
}

func init() {
	readCmd.Flags().StringVarP(&treeFlag, "tree", "t", "", "Tree id (default: the active tree)")
	readCmd.Flags().BoolVar(&readPlain, "plain", false, "Print raw text without markdown rendering")
	readCmd.Flags().IntVar(&readWidth, "width", 80, "Wrap width for rendered output")
}

func runRead(cmd *cobra.Command, args []string) error {
	return withNode(firstArg(args), func(a *app, treeID, nodeID string) error {
		ancestry := a.trees.GetAncestry(treeID, nodeID)
		if readPlain {
			fmt.Println(tree.JoinText(ancestry))
			return nil
		}
		out, err := render.Branch(ancestry, readWidth)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	})
}
