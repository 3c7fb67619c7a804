// Package scripts embeds the default visitor scripts used by `arbor visit`
// when no scripts directory is configured. They print an outline of a
// file's declarations and comments.
package scripts

import "embed"

//go:embed *.risor
var FS embed.FS
