package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/arbor"
)

var flagScriptsDir string

var visitCmd = &cobra.Command{
	Use:   "visit <file>",
	Short: "Run visitor scripts over a file's syntax tree",
	Long: `Parses a file and walks its tree, running node.risor for every node and
<category>.risor (file, declaration, statement, expression, token, comment,
trivia, error) where present. Values the scripts pass to emit() are printed.
Scripts can also read the index through files(), file_stats() and db_query().`,
	Args: cobra.ExactArgs(1),
	RunE: runVisit,
}

func init() {
	visitCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "directory holding visitor scripts (default: scripts from .arbor.toml)")
}

func runVisit(cmd *cobra.Command, args []string) error {
	path, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("visit", err)
	}

	var opts []arbor.Option
	if flagScriptsDir != "" {
		dir, err := filepath.Abs(flagScriptsDir)
		if err != nil {
			return outputError("visit", err)
		}
		opts = append(opts, arbor.WithScriptsDir(dir))
	}
	engine, _, err := openEngine(filepath.Dir(path), opts...)
	if err != nil {
		return outputError("visit", err)
	}
	defer engine.Close()

	records, err := engine.VisitFile(commandContext(cmd), path)
	if err != nil {
		return outputError("visit", err)
	}
	out := make([]CLIRecord, 0, len(records))
	for _, r := range records {
		out = append(out, CLIRecord(r))
	}
	return outputResult(CLIResult{Command: "visit", Results: out})
}
