package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/arbor"
	"github.com/jward/arbor/internal/config"
	"github.com/jward/arbor/internal/store"
)

var flagLanguage string

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the syntax index",
	Long:  "Run role and navigation queries against an indexed repository. Nodes are addressed by file and node ID; lines and columns are 1-based.",
}

func init() {
	filesCmd.Flags().StringVar(&flagLanguage, "language", "", "only list files of this language")

	queryCmd.AddCommand(filesCmd)
	queryCmd.AddCommand(statsCmd)
	queryCmd.AddCommand(rootNodeCmd)
	queryCmd.AddCommand(nodeCmd)
	queryCmd.AddCommand(parentCmd)
	queryCmd.AddCommand(childrenCmd)
	queryCmd.AddCommand(childCmd)
	queryCmd.AddCommand(roleCmd)
	queryCmd.AddCommand(byRoleCmd)
	queryCmd.AddCommand(byTypeCmd)
	queryCmd.AddCommand(nextCmd)
	queryCmd.AddCommand(prevCmd)
	queryCmd.AddCommand(rolesCmd)
}

// --- Helpers ---

// openStore opens the Store from the --db flag path, the config, or the
// default.
func openStore() (*store.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	repoRoot := findRepoRoot(cwd)
	cfg, err := config.Load(repoRoot)
	if err != nil {
		return nil, err
	}
	dbPath := resolveDBPath(repoRoot, cfg)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'arbor index' first)", dbPath)
	}
	return store.NewStore(dbPath)
}

// resolveFilePath converts a file argument to an absolute path.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// parseIntArg parses a positional argument as a non-negative integer.
func parseIntArg(value, name string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(os.Stdout, result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

func nodeToCLI(n *arbor.IndexedNode, file string) CLINode {
	return CLINode{
		ID:        n.NodeID,
		File:      file,
		Type:      n.Type,
		Category:  n.Category,
		Role:      n.Role,
		StartLine: n.StartLine,
		StartCol:  n.StartCol,
		EndLine:   n.EndLine,
		EndCol:    n.EndCol,
		Text:      n.Text,
	}
}

func nodesToCLI(nodes []*arbor.IndexedNode, file string) []CLINode {
	out := make([]CLINode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, nodeToCLI(n, file))
	}
	return out
}

func countsToCLI(m map[string]int) []CLICount {
	out := make([]CLICount, 0, len(m))
	for k, v := range m {
		out = append(out, CLICount{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// queryRunner wraps a query command body with store setup, file and node
// argument parsing and result output.
type queryRunner func(qb *arbor.QueryBuilder, file string, args []string) (any, error)

func runNodeQuery(command string, withNodeID bool, run queryRunner) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return outputError(command, err)
		}
		defer s.Close()

		file, err := resolveFilePath(args[0])
		if err != nil {
			return outputError(command, err)
		}
		rest := args[1:]
		if withNodeID {
			if _, err := parseIntArg(rest[0], "node id"); err != nil {
				return outputError(command, err)
			}
		}
		results, err := run(arbor.NewQueryBuilder(s), file, rest)
		if err != nil {
			return outputError(command, err)
		}
		return outputResult(CLIResult{Command: command, Results: results})
	}
}

// nodeIDArg is only called after runNodeQuery validated the argument.
func nodeIDArg(args []string) int64 {
	n, _ := parseIntArg(args[0], "node id")
	return n
}

func singleNode(n *arbor.IndexedNode, file string) any {
	if n == nil {
		return nil
	}
	return nodeToCLI(n, file)
}

// --- Commands ---

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List indexed files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return outputError("files", err)
		}
		defer s.Close()

		var files []*store.File
		if flagLanguage != "" {
			files, err = s.FilesByLanguage(flagLanguage)
		} else {
			files, err = arbor.NewQueryBuilder(s).Files()
		}
		if err != nil {
			return outputError("files", err)
		}
		out := make([]CLIFile, 0, len(files))
		for _, f := range files {
			out = append(out, CLIFile{ID: f.ID, Path: f.Path, Language: f.Language, NodeCount: f.NodeCount, Fingerprint: f.Fingerprint})
		}
		return outputResult(CLIResult{Command: "files", Results: out})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Count a file's nodes per visitor category",
	Args:  cobra.ExactArgs(1),
	RunE: runNodeQuery("stats", false, func(qb *arbor.QueryBuilder, file string, _ []string) (any, error) {
		counts, err := qb.Stats(file)
		if err != nil {
			return nil, err
		}
		return countsToCLI(counts), nil
	}),
}

var rootNodeCmd = &cobra.Command{
	Use:   "root <file>",
	Short: "Show a file's root node",
	Args:  cobra.ExactArgs(1),
	RunE: runNodeQuery("root", false, func(qb *arbor.QueryBuilder, file string, _ []string) (any, error) {
		n, err := qb.Root(file)
		return singleNode(n, file), err
	}),
}

var nodeCmd = &cobra.Command{
	Use:   "node <file> <id>",
	Short: "Show one node",
	Args:  cobra.ExactArgs(2),
	RunE: runNodeQuery("node", true, func(qb *arbor.QueryBuilder, file string, args []string) (any, error) {
		n, err := qb.Node(file, nodeIDArg(args))
		return singleNode(n, file), err
	}),
}

var parentCmd = &cobra.Command{
	Use:   "parent <file> <id>",
	Short: "Show a node's parent",
	Args:  cobra.ExactArgs(2),
	RunE: runNodeQuery("parent", true, func(qb *arbor.QueryBuilder, file string, args []string) (any, error) {
		n, err := qb.Parent(file, nodeIDArg(args))
		return singleNode(n, file), err
	}),
}

var childrenCmd = &cobra.Command{
	Use:   "children <file> <id>",
	Short: "List a node's children with their roles",
	Args:  cobra.ExactArgs(2),
	RunE: runNodeQuery("children", true, func(qb *arbor.QueryBuilder, file string, args []string) (any, error) {
		kids, err := qb.Children(file, nodeIDArg(args))
		return nodesToCLI(kids, file), err
	}),
}

var childCmd = &cobra.Command{
	Use:   "child <file> <id> <role>",
	Short: "Find the child of a node that fills a role",
	Args:  cobra.ExactArgs(3),
	RunE: runNodeQuery("child", true, func(qb *arbor.QueryBuilder, file string, args []string) (any, error) {
		n, err := qb.ChildByRole(file, nodeIDArg(args), args[1])
		return singleNode(n, file), err
	}),
}

var roleCmd = &cobra.Command{
	Use:   "role <file> <id>",
	Short: "Show the role a node fills in its parent",
	Args:  cobra.ExactArgs(2),
	RunE: runNodeQuery("role", true, func(qb *arbor.QueryBuilder, file string, args []string) (any, error) {
		return qb.RoleOf(file, nodeIDArg(args))
	}),
}

var byRoleCmd = &cobra.Command{
	Use:   "by-role <file> <role>",
	Short: "List every node of a file that fills a role",
	Args:  cobra.ExactArgs(2),
	RunE: runNodeQuery("by-role", false, func(qb *arbor.QueryBuilder, file string, args []string) (any, error) {
		nodes, err := qb.NodesByRole(file, args[0])
		return nodesToCLI(nodes, file), err
	}),
}

var byTypeCmd = &cobra.Command{
	Use:   "by-type <file> <type>",
	Short: "List every node of a file with an element type",
	Args:  cobra.ExactArgs(2),
	RunE: runNodeQuery("by-type", false, func(qb *arbor.QueryBuilder, file string, args []string) (any, error) {
		nodes, err := qb.NodesByType(file, args[0])
		return nodesToCLI(nodes, file), err
	}),
}

var nextCmd = &cobra.Command{
	Use:   "next <file> <id>",
	Short: "Show a node's next sibling",
	Args:  cobra.ExactArgs(2),
	RunE: runNodeQuery("next", true, func(qb *arbor.QueryBuilder, file string, args []string) (any, error) {
		n, err := qb.NextSibling(file, nodeIDArg(args))
		return singleNode(n, file), err
	}),
}

var prevCmd = &cobra.Command{
	Use:   "prev <file> <id>",
	Short: "Show a node's previous sibling",
	Args:  cobra.ExactArgs(2),
	RunE: runNodeQuery("prev", true, func(qb *arbor.QueryBuilder, file string, args []string) (any, error) {
		n, err := qb.PrevSibling(file, nodeIDArg(args))
		return singleNode(n, file), err
	}),
}

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Count indexed nodes per role across all files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return outputError("roles", err)
		}
		defer s.Close()

		counts, err := arbor.NewQueryBuilder(s).RoleCounts()
		if err != nil {
			return outputError("roles", err)
		}
		return outputResult(CLIResult{Command: "roles", Results: countsToCLI(counts)})
	},
}
