package github

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-codetree/pkg/codebase"
	"github.com/mattsolo1/grove-codetree/pkg/source"
)

// GitHubProvider implements source.Provider through the GitHub CLI.
type GitHubProvider struct {
	logger *logrus.Entry
	run    source.CommandRunner
}

// NewProvider creates a new GitHubProvider.
func NewProvider(logger *logrus.Entry) *GitHubProvider {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &GitHubProvider{logger: logger}
}

// Name returns the name of the provider.
func (p *GitHubProvider) Name() string {
	return "github"
}

// FetchTree fetches the recursive tree listing of a repository using
// 'gh api'. Authentication is whatever gh is logged in with.
func (p *GitHubProvider) FetchTree(ctx context.Context, ref source.Ref) (*codebase.Payload, error) {
	run := p.run
	if run == nil {
		// Check if gh cli is installed
		if _, err := exec.LookPath("gh"); err != nil {
			return nil, fmt.Errorf("gh command not found in PATH, please install the GitHub CLI")
		}
		run = source.ExecRunner
	}

	output, err := run(ctx, "", "gh", "api", treesEndpoint(ref))
	if err != nil {
		return nil, fmt.Errorf("gh api failed: %w", err)
	}

	payload, err := decodePayload(output)
	if err != nil {
		return nil, err
	}
	warnIfTruncated(p.logger, ref, payload)
	return payload, nil
}

func treesEndpoint(ref source.Ref) string {
	return fmt.Sprintf("repos/%s/%s/git/trees/%s?recursive=1", ref.Owner, ref.Repo, ref.Ref)
}

func decodePayload(data []byte) (*codebase.Payload, error) {
	var payload codebase.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse tree response: %w", err)
	}
	if payload.Tree == nil {
		return nil, fmt.Errorf("tree response has no tree field")
	}
	return &payload, nil
}

func warnIfTruncated(logger *logrus.Entry, ref source.Ref, payload *codebase.Payload) {
	if payload.Truncated {
		logger.WithFields(logrus.Fields{
			"repository": ref.String(),
			"entries":    len(payload.Tree),
		}).Warn("GitHub truncated the tree listing; the forest is incomplete")
	}
}
