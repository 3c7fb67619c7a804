package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/arbor"
	"github.com/jward/arbor/internal/lang"
	"github.com/jward/arbor/internal/parse"
	"github.com/jward/arbor/internal/tree"
	"github.com/jward/arbor/internal/visit"
)

var flagTrivia bool

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print a file's syntax tree with child roles",
	Long:  "Parses a single file without touching the index and prints its tree, naming the role each child fills in its parent.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().BoolVar(&flagTrivia, "trivia", false, "keep whitespace leaves in the tree")
}

func runDump(cmd *cobra.Command, args []string) error {
	path, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("dump", err)
	}
	doc, err := parseFile(commandContext(cmd), path, flagTrivia)
	if err != nil {
		return outputError("dump", err)
	}
	root, err := dumpTree(commandContext(cmd), doc)
	if err != nil {
		return outputError("dump", err)
	}
	return outputResult(CLIResult{Command: "dump", Results: root})
}

// parseFile parses path with the language its extension selects.
func parseFile(ctx context.Context, path string, trivia bool) (*arbor.Document, error) {
	l, ok := lang.ForFile(path)
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := parse.Parse(ctx, l, src, parse.Options{Trivia: trivia})
	if err != nil {
		return nil, err
	}
	return arbor.NewDocument(path, l, t, src), nil
}

// dumpTree converts doc's tree to CLITreeNodes, leaves carrying their text.
func dumpTree(ctx context.Context, doc *arbor.Document) (*CLITreeNode, error) {
	roles, err := doc.RoleIndex(ctx)
	if err != nil {
		return nil, err
	}
	var build func(n tree.Node) *CLITreeNode
	build = func(n tree.Node) *CLITreeNode {
		start, end := n.Span()
		out := &CLITreeNode{
			ID:       int64(n.ID()),
			Type:     string(n.Type()),
			Category: visit.Of(doc.Lang.Categories, n).String(),
			Role:     string(roles[n.ID()]),
			Start:    start,
			End:      end,
		}
		if n.IsLeaf() {
			out.Text = n.Text()
		}
		for _, c := range n.Children() {
			out.Children = append(out.Children, build(c))
		}
		return out
	}
	return build(doc.Tree.Root()), nil
}
