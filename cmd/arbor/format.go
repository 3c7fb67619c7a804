package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// formatNodesText formats CLINode results as aligned columns.
func formatNodesText(w io.Writer, nodes []CLINode) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tCATEGORY\tROLE\tLINE\tCOL\tTEXT")
	for _, n := range nodes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
			n.ID, n.Type, n.Category, n.Role, n.StartLine, n.StartCol, quoteText(n.Text))
	}
	tw.Flush()
}

// formatFilesText formats CLIFile results as aligned columns.
func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tLANGUAGE\tNODES")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", f.ID, f.Path, f.Language, f.NodeCount)
	}
	tw.Flush()
}

// formatCountsText formats CLICount results as "name: count" lines.
func formatCountsText(w io.Writer, counts []CLICount) {
	for _, c := range counts {
		fmt.Fprintf(w, "%s: %d\n", c.Name, c.Count)
	}
}

// formatTreeText prints one node per line, indented by depth, as
// "role: type" with leaf text appended.
func formatTreeText(w io.Writer, n *CLITreeNode, depth int) {
	fmt.Fprint(w, strings.Repeat("  ", depth))
	if n.Role != "" {
		fmt.Fprintf(w, "%s: ", n.Role)
	}
	fmt.Fprintf(w, "%s [%d-%d]", n.Type, n.Start, n.End)
	if n.Text != "" {
		fmt.Fprintf(w, " %s", quoteText(n.Text))
	}
	fmt.Fprintln(w)
	for _, c := range n.Children {
		formatTreeText(w, c, depth+1)
	}
}

// formatRecordsText prints each record as key=value pairs in key order.
func formatRecordsText(w io.Writer, records []CLIRecord) {
	for _, r := range records {
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			v, err := json.Marshal(r[k])
			if err != nil {
				v = []byte(fmt.Sprint(r[k]))
			}
			parts = append(parts, k+"="+string(v))
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
	}
}

func quoteText(s string) string {
	if s == "" {
		return ""
	}
	return fmt.Sprintf("%q", s)
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLINode:
		formatNodesText(w, v)
	case CLINode:
		formatNodesText(w, []CLINode{v})
	case []CLIFile:
		formatFilesText(w, v)
	case []CLICount:
		formatCountsText(w, v)
	case *CLITreeNode:
		formatTreeText(w, v, 0)
	case []CLIRecord:
		formatRecordsText(w, v)
	case string:
		fmt.Fprintln(w, v)
	case nil:
		// No output for nil results (e.g., a missing sibling).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
