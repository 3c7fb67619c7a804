package main

// CLIResult is the top-level JSON envelope for all query commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLINode is a JSON-friendly indexed node. Lines and columns are 1-based.
type CLINode struct {
	ID        int64  `json:"id"`
	File      string `json:"file,omitempty"`
	Type      string `json:"type"`
	Category  string `json:"category"`
	Role      string `json:"role,omitempty"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
	Text      string `json:"text,omitempty"`
}

// CLIFile is a JSON-friendly file representation.
type CLIFile struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	Language    string `json:"language"`
	NodeCount   int    `json:"node_count"`
	Fingerprint string `json:"fingerprint"`
}

// CLICount is one name/count pair, used for role and category tallies.
type CLICount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CLITreeNode is one node of a dumped syntax tree.
type CLITreeNode struct {
	ID       int64          `json:"id"`
	Type     string         `json:"type"`
	Category string         `json:"category"`
	Role     string         `json:"role,omitempty"`
	Start    uint32         `json:"start"`
	End      uint32         `json:"end"`
	Text     string         `json:"text,omitempty"`
	Children []*CLITreeNode `json:"children,omitempty"`
}

// CLIRecord is one value emitted by a visitor script.
type CLIRecord map[string]any
