package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"loom/internal/render"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	showIDs    bool
	exportFile string
)

// treeCmd groups whole-document operations
var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Create, list and manage trees",
}

var treeNewCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a tree with an empty root and make it active",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTreeNew,
}

var treeListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List trees (the active tree is marked with *)",
	Args:    cobra.NoArgs,
	RunE:    runTreeList,
}

var treeShowCmd = &cobra.Command{
	Use:   "show [tree-id]",
	Short: "Draw a tree (default: the active tree)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTreeShow,
}

var treeRenameCmd = &cobra.Command{
	Use:   "rename <tree-id> <name>",
	Short: "Rename a tree",
	Args:  cobra.ExactArgs(2),
	RunE:  runTreeRename,
}

var treeUseCmd = &cobra.Command{
	Use:   "use <tree-id>",
	Short: "Make a tree active",
	Args:  cobra.ExactArgs(1),
	RunE:  runTreeUse,
}

var treeRmCmd = &cobra.Command{
	Use:   "rm <tree-id>",
	Short: "Delete a tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runTreeRm,
}

var treeExportCmd = &cobra.Command{
	Use:   "export [tree-id]",
	Short: "Write a tree as JSON to stdout or --output",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTreeExport,
}

var treeImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Import a tree exported with 'loom tree export' and make it active",
	Args:  cobra.ExactArgs(1),
	RunE:  runTreeImport,
}

func init() {
	treeShowCmd.Flags().BoolVar(&showIDs, "ids", false, "Show node ids")
	treeExportCmd.Flags().StringVarP(&exportFile, "output", "o", "", "Write to file instead of stdout")

	treeCmd.AddCommand(treeNewCmd)
	treeCmd.AddCommand(treeListCmd)
	treeCmd.AddCommand(treeShowCmd)
	treeCmd.AddCommand(treeRenameCmd)
	treeCmd.AddCommand(treeUseCmd)
	treeCmd.AddCommand(treeRmCmd)
	treeCmd.AddCommand(treeExportCmd)
	treeCmd.AddCommand(treeImportCmd)
}

func runTreeNew(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id := a.trees.CreateTree(strings.Join(args, " "))
	logger.Info("Created tree", zap.String("id", id))
	fmt.Println(id)
	return a.saved()
}

func runTreeList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	list := a.trees.ListTrees()
	if len(list) == 0 {
		fmt.Println("No trees yet. Create one with 'loom tree new <name>'.")
		return nil
	}
	fmt.Print(render.TreeList(list, render.DefaultStyles()))
	return nil
}

func runTreeShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	treeID, err := a.resolveTree(firstArg(args))
	if err != nil {
		return err
	}
	fmt.Println(render.Tree(a.trees.GetTree(treeID), render.DefaultStyles(), render.TreeOptions{ShowIDs: showIDs}))
	return nil
}

func runTreeRename(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	treeID, err := a.resolveTree(args[0])
	if err != nil {
		return err
	}
	a.trees.UpdateTreeName(treeID, args[1])
	return a.saved()
}

func runTreeUse(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	treeID, err := a.resolveTree(args[0])
	if err != nil {
		return err
	}
	a.trees.SetActiveTree(treeID)
	fmt.Printf("Active tree: %s (%s)\n", a.trees.GetTree(treeID).Name, treeID)
	return a.saved()
}

func runTreeRm(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	treeID, err := a.resolveTree(args[0])
	if err != nil {
		return err
	}
	a.trees.DeleteTree(treeID)
	logger.Info("Deleted tree", zap.String("id", treeID))
	if active := a.trees.ActiveTreeID(); active != "" {
		fmt.Printf("Deleted %s; active tree is now %s\n", treeID, active)
	} else {
		fmt.Printf("Deleted %s; no trees left\n", treeID)
	}
	return a.saved()
}

func runTreeExport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	treeID, err := a.resolveTree(firstArg(args))
	if err != nil {
		return err
	}
	data, err := a.trees.ExportTree(treeID)
	if err != nil {
		return err
	}
	if exportFile == "" {
		fmt.Println(data)
		return nil
	}
	if err := os.WriteFile(exportFile, []byte(data+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Printf("Exported %s to %s\n", treeID, exportFile)
	return nil
}

func runTreeImport(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read import: %w", err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.trees.ImportTree(string(data))
	if err != nil {
		return err
	}
	logger.Info("Imported tree", zap.String("id", id))
	fmt.Println(id)
	return a.saved()
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
