package local

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-codetree/pkg/codebase"
	"github.com/mattsolo1/grove-codetree/pkg/source"
)

// GitProvider lists the tree of a local checkout with 'git ls-tree'.
type GitProvider struct {
	logger *logrus.Entry
	run    source.CommandRunner
}

// NewGitProvider creates a new GitProvider.
func NewGitProvider(logger *logrus.Entry) *GitProvider {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &GitProvider{logger: logger}
}

// Name returns the name of the provider.
func (p *GitProvider) Name() string {
	return "git"
}

// FetchTree lists every blob and tree reachable from ref.Ref in the
// repository at ref.Path.
func (p *GitProvider) FetchTree(ctx context.Context, ref source.Ref) (*codebase.Payload, error) {
	run := p.run
	if run == nil {
		if _, err := exec.LookPath("git"); err != nil {
			return nil, fmt.Errorf("git command not found in PATH")
		}
		run = source.ExecRunner
	}

	repoPath := ref.Path
	if repoPath == "" {
		repoPath = "."
	}
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolve repo path: %w", err)
	}

	revision := ref.Ref
	if revision == "" {
		revision = source.DefaultRef
	}

	output, err := run(ctx, absPath, "git", "ls-tree", "-r", "-t", "-l", "-z", revision)
	if err != nil {
		return nil, fmt.Errorf("git ls-tree failed: %w", err)
	}

	entries, err := parseLsTree(output)
	if err != nil {
		return nil, err
	}
	p.logger.WithFields(logrus.Fields{
		"repo":    absPath,
		"ref":     revision,
		"entries": len(entries),
	}).Debug("Listed local tree")

	return &codebase.Payload{Tree: entries}, nil
}

// parseLsTree parses NUL-terminated 'git ls-tree -l -z' records of the form
// "<mode> <type> <object> <size>\t<path>".
func parseLsTree(output []byte) ([]codebase.TreeEntry, error) {
	entries := []codebase.TreeEntry{}
	for _, record := range strings.Split(string(output), "\x00") {
		if record == "" {
			continue
		}
		meta, path, ok := strings.Cut(record, "\t")
		if !ok {
			return nil, fmt.Errorf("malformed ls-tree record %q", record)
		}
		fields := strings.Fields(meta)
		if len(fields) != 4 {
			return nil, fmt.Errorf("malformed ls-tree record %q", record)
		}

		entry := codebase.TreeEntry{
			Path: path,
			Mode: fields[0],
			Type: codebase.EntryType(fields[1]),
			SHA:  fields[2],
		}
		if fields[3] != "-" {
			size, err := strconv.ParseInt(fields[3], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse size of %s: %w", path, err)
			}
			entry.Size = &size
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
