package codebase

// EntryType is the kind of a record in a source-control tree listing.
type EntryType string

const (
	EntryBlob   EntryType = "blob"
	EntryTree   EntryType = "tree"
	EntryCommit EntryType = "commit" // Submodule pointer, never materialized
)

// TreeEntry is one record of a flat tree listing as returned by the GitHub
// git trees API (or produced by `git ls-tree`).
type TreeEntry struct {
	Path string    `json:"path" yaml:"path"`
	Mode string    `json:"mode" yaml:"mode"`
	Type EntryType `json:"type" yaml:"type"`
	SHA  string    `json:"sha" yaml:"sha"`
	Size *int64    `json:"size,omitempty" yaml:"size,omitempty"`
	URL  string    `json:"url" yaml:"url"`
}

// Payload wraps a tree listing. Only Tree is needed to build a forest.
type Payload struct {
	SHA       string      `json:"sha,omitempty" yaml:"sha,omitempty"`
	URL       string      `json:"url,omitempty" yaml:"url,omitempty"`
	Tree      []TreeEntry `json:"tree" yaml:"tree"`
	Truncated bool        `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// NodeType categorizes nodes in the materialized forest.
type NodeType string

const (
	TypeFile      NodeType = "file"
	TypeDirectory NodeType = "directory"
)

// Node is a single file or directory in the materialized forest.
// Size is only set on files; Children is only set on directories.
type Node struct {
	Name     string   `json:"name" yaml:"name"`
	Path     string   `json:"path" yaml:"path"`
	Type     NodeType `json:"type" yaml:"type"`
	SHA      string   `json:"sha" yaml:"sha"`
	Size     *int64   `json:"size,omitempty" yaml:"size,omitempty"`
	URL      string   `json:"url" yaml:"url"`
	Children []*Node  `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool {
	return n.Type == TypeDirectory
}
