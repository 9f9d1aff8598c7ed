package codebase

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

type buildOptions struct {
	strict bool
	logger *logrus.Entry
}

// Option configures how a forest is built.
type Option func(*buildOptions)

// WithStrict makes Build return an InvalidEntryError for malformed or
// conflicting entries instead of skipping them with a warning.
func WithStrict(strict bool) Option {
	return func(o *buildOptions) {
		o.strict = strict
	}
}

// WithLogger sets the logger used for skipped-entry warnings.
func WithLogger(logger *logrus.Entry) Option {
	return func(o *buildOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newBuildOptions(opts []Option) *buildOptions {
	o := &buildOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logrus.NewEntry(logrus.New())
	}
	return o
}

// ConvertToNestedTree materializes the payload's flat listing into a forest.
// A nil payload or a payload without a tree yields an empty forest. Malformed
// entries are always skipped here, even if WithStrict is passed.
func ConvertToNestedTree(payload *Payload, opts ...Option) []*Node {
	if payload == nil || payload.Tree == nil {
		return []*Node{}
	}
	opts = append(opts[:len(opts):len(opts)], WithStrict(false))
	forest, _ := Build(payload.Tree, opts...)
	return forest
}

// DecodeAndConvert parses a raw `{"tree": [...]}` document and materializes
// it. An undecodable document yields an empty forest; an undecodable tree
// element is skipped with a warning.
func DecodeAndConvert(data []byte, opts ...Option) []*Node {
	o := newBuildOptions(opts)

	var doc struct {
		SHA       string            `json:"sha"`
		URL       string            `json:"url"`
		Tree      []json.RawMessage `json:"tree"`
		Truncated bool              `json:"truncated"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		o.logger.WithError(err).Warn("Ignoring undecodable tree payload")
		return []*Node{}
	}
	if doc.Tree == nil {
		return []*Node{}
	}

	payload := &Payload{SHA: doc.SHA, URL: doc.URL, Truncated: doc.Truncated, Tree: make([]TreeEntry, 0, len(doc.Tree))}
	for i, raw := range doc.Tree {
		var entry TreeEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			o.logger.WithError(err).WithField("index", i).Warn("Skipping undecodable tree entry")
			continue
		}
		payload.Tree = append(payload.Tree, entry)
	}
	return ConvertToNestedTree(payload, opts...)
}

// Build materializes entries into a forest rooted at path depth 1.
//
// Directories are inferred from every entry's ancestors, created shallowest
// first, and then the entries are replayed in input order to attach files
// and fill in directory metadata.
func Build(entries []TreeEntry, opts ...Option) ([]*Node, error) {
	o := newBuildOptions(opts)

	accepted := make([]TreeEntry, 0, len(entries))
	indexes := make([]int, 0, len(entries))
	for i, entry := range entries {
		if entry.Type == EntryCommit {
			o.logger.WithField("path", entry.Path).Debug("Skipping submodule entry")
			continue
		}
		if reason := validateEntry(entry); reason != "" {
			if o.strict {
				return nil, &InvalidEntryError{Index: i, Path: entry.Path, Reason: reason}
			}
			o.logger.WithFields(logrus.Fields{
				"index":  i,
				"path":   entry.Path,
				"reason": reason,
			}).Warn("Skipping malformed tree entry")
			continue
		}
		accepted = append(accepted, entry)
		indexes = append(indexes, i)
	}

	b := newBuilder(o.logger)
	b.materialize(inferDirectories(accepted))
	for i, entry := range accepted {
		if err := b.replay(entry); err != nil {
			if o.strict {
				return nil, &InvalidEntryError{Index: indexes[i], Path: entry.Path, Reason: err.Error()}
			}
			o.logger.WithFields(logrus.Fields{
				"index":  indexes[i],
				"path":   entry.Path,
				"reason": err.Error(),
			}).Warn("Skipping conflicting tree entry")
		}
	}
	return b.roots, nil
}

func validateEntry(entry TreeEntry) string {
	switch {
	case entry.Path == "":
		return "empty path"
	case strings.HasPrefix(entry.Path, "/") || strings.HasSuffix(entry.Path, "/"):
		return "path must not start or end with a slash"
	case strings.Contains(entry.Path, "//"):
		return "empty path segment"
	case entry.Type != EntryBlob && entry.Type != EntryTree:
		return fmt.Sprintf("unsupported entry type %q", entry.Type)
	}
	return ""
}

// inferDirectories returns every directory path implied by the entries:
// the strict ancestors of each blob, and each tree path with its ancestors.
func inferDirectories(entries []TreeEntry) map[string]struct{} {
	dirs := make(map[string]struct{})
	for _, entry := range entries {
		parts := strings.Split(entry.Path, "/")
		n := len(parts) - 1
		if entry.Type == EntryTree {
			n = len(parts)
		}
		for i := 1; i <= n; i++ {
			dirs[strings.Join(parts[:i], "/")] = struct{}{}
		}
	}
	return dirs
}

type builder struct {
	dirs   map[string]*Node
	files  map[string]*Node
	roots  []*Node
	logger *logrus.Entry
}

func newBuilder(logger *logrus.Entry) *builder {
	return &builder{
		dirs:   make(map[string]*Node),
		files:  make(map[string]*Node),
		roots:  []*Node{},
		logger: logger,
	}
}

// materialize creates a node for every directory, parents before children.
func (b *builder) materialize(dirs map[string]struct{}) {
	paths := make([]string, 0, len(dirs))
	for p := range dirs {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		di, dj := depth(paths[i]), depth(paths[j])
		if di != dj {
			return di < dj
		}
		return paths[i] < paths[j]
	})

	for _, p := range paths {
		node := newDirectory(p)
		b.dirs[p] = node
		if parent, ok := b.dirs[parentPath(p)]; ok {
			parent.Children = append(parent.Children, node)
		} else {
			b.roots = append(b.roots, node)
		}
	}
}

func (b *builder) replay(entry TreeEntry) error {
	if entry.Type == EntryTree {
		dir := b.ensureDirectory(entry.Path)
		dir.SHA = entry.SHA
		dir.URL = entry.URL
		return nil
	}

	if _, ok := b.dirs[entry.Path]; ok {
		return fmt.Errorf("file path collides with a directory")
	}

	file := &Node{
		Name: baseName(entry.Path),
		Path: entry.Path,
		Type: TypeFile,
		SHA:  entry.SHA,
		Size: entry.Size,
		URL:  entry.URL,
	}

	// Duplicate paths: the last entry wins, keeping the first one's position.
	if existing, ok := b.files[entry.Path]; ok {
		*existing = *file
		return nil
	}
	b.files[entry.Path] = file

	parent := parentPath(entry.Path)
	if parent == "" {
		b.roots = append(b.roots, file)
		return nil
	}
	dir, ok := b.dirs[parent]
	if !ok {
		b.logger.WithField("path", parent).Debug("Creating missing parent directory")
		dir = b.ensureDirectory(parent)
	}
	dir.Children = append(dir.Children, file)
	return nil
}

// ensureDirectory returns the directory at p, creating it and any missing
// ancestors. materialize normally leaves nothing for it to create.
func (b *builder) ensureDirectory(p string) *Node {
	if dir, ok := b.dirs[p]; ok {
		return dir
	}
	dir := newDirectory(p)
	b.dirs[p] = dir
	if parent := parentPath(p); parent != "" {
		up := b.ensureDirectory(parent)
		up.Children = append(up.Children, dir)
	} else {
		b.roots = append(b.roots, dir)
	}
	return dir
}

func newDirectory(p string) *Node {
	return &Node{
		Name:     baseName(p),
		Path:     p,
		Type:     TypeDirectory,
		Children: []*Node{},
	}
}

func depth(p string) int {
	return strings.Count(p, "/") + 1
}

func parentPath(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[:i]
	}
	return ""
}

func baseName(p string) string {
	return p[strings.LastIndex(p, "/")+1:]
}
