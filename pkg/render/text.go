package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattsolo1/grove-codetree/pkg/codebase"
)

const (
	branchMid  = "├── "
	branchLast = "└── "
	indentPipe = "│   "
	indentNone = "    "
)

// TextOptions controls the plain-text tree rendering.
type TextOptions struct {
	ShowSize bool
	ShowSHA  bool
}

// Text writes the forest as a box-drawing tree, one node per line.
// Directories are suffixed with a slash.
func Text(w io.Writer, forest []*codebase.Node, opts TextOptions) error {
	var b strings.Builder
	writeLevel(&b, forest, "", opts)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeLevel(b *strings.Builder, nodes []*codebase.Node, prefix string, opts TextOptions) {
	for i, n := range nodes {
		last := i == len(nodes)-1
		branch, indent := branchMid, indentPipe
		if last {
			branch, indent = branchLast, indentNone
		}

		b.WriteString(prefix)
		b.WriteString(branch)
		b.WriteString(label(n, opts))
		b.WriteByte('\n')

		if n.IsDir() {
			writeLevel(b, n.Children, prefix+indent, opts)
		}
	}
}

func label(n *codebase.Node, opts TextOptions) string {
	name := n.Name
	if n.IsDir() {
		name += "/"
	}

	var extras []string
	if opts.ShowSize && n.Size != nil {
		extras = append(extras, formatBytes(*n.Size))
	}
	if opts.ShowSHA && n.SHA != "" {
		sha := n.SHA
		if len(sha) > 7 {
			sha = sha[:7]
		}
		extras = append(extras, sha)
	}
	if len(extras) == 0 {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, strings.Join(extras, ", "))
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
