package service

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-codetree/pkg/cache"
	"github.com/mattsolo1/grove-codetree/pkg/codebase"
	"github.com/mattsolo1/grove-codetree/pkg/config"
	"github.com/mattsolo1/grove-codetree/pkg/source"
	"github.com/mattsolo1/grove-codetree/pkg/source/github"
	"github.com/mattsolo1/grove-codetree/pkg/source/local"
)

// Provider kinds. Configured aliases name one of these as their type.
const (
	KindGitHub     = "github"
	KindGitHubHTTP = "githttp"
	KindGit        = "git"
	KindFile       = "file"
)

// Service is the core tree service
type Service struct {
	Registry *source.Registry
	Cache    *cache.Cache
	Config   *config.Config
	Logger   *logrus.Entry

	kinds map[string]string
}

// New creates a new tree service. The cache is opened only when enabled.
func New(cfg *config.Config, logger *logrus.Entry) (*Service, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}

	s := &Service{
		Registry: source.NewRegistry(),
		Config:   cfg,
		Logger:   logger,
		kinds:    make(map[string]string),
	}

	s.register(KindGitHub, KindGitHub, "", "")
	s.register(KindGitHubHTTP, KindGitHubHTTP, cfg.GitHub.BaseURL, cfg.GitHub.Token)
	s.register(KindGit, KindGit, "", "")
	s.register(KindFile, KindFile, "", "")

	for name, pc := range cfg.Providers {
		if _, exists := s.kinds[name]; exists {
			return nil, fmt.Errorf("provider alias '%s' shadows a built-in provider", name)
		}
		baseURL, token := pc.BaseURL, pc.Token
		if baseURL == "" {
			baseURL = cfg.GitHub.BaseURL
		}
		if token == "" {
			token = cfg.GitHub.Token
		}
		if err := s.registerKind(name, pc.Type, baseURL, token); err != nil {
			return nil, err
		}
	}

	if cfg.Cache.Enabled {
		c, err := cache.Open(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		s.Cache = c
	}

	return s, nil
}

func (s *Service) register(name, kind, baseURL, token string) {
	// Built-in kinds are always valid.
	_ = s.registerKind(name, kind, baseURL, token)
}

func (s *Service) registerKind(name, kind, baseURL, token string) error {
	var factory source.Factory
	switch kind {
	case KindGitHub:
		factory = func() source.Provider { return github.NewProvider(s.Logger) }
	case KindGitHubHTTP:
		factory = func() source.Provider { return github.NewHTTPProvider(baseURL, token, s.Logger) }
	case KindGit:
		factory = func() source.Provider { return local.NewGitProvider(s.Logger) }
	case KindFile:
		factory = func() source.Provider { return local.NewFileProvider() }
	default:
		return fmt.Errorf("provider '%s' has unknown type '%s'", name, kind)
	}
	s.kinds[name] = kind
	s.Registry.Register(name, factory)
	return nil
}

// Close releases the cache database, if open.
func (s *Service) Close() error {
	if s.Cache != nil {
		return s.Cache.Close()
	}
	return nil
}

// FetchOptions control a single fetch.
type FetchOptions struct {
	Refresh bool
}

// ResolveRef interprets target for the named provider: owner/repo[@ref] for
// GitHub kinds, path[@ref] for git, and a file path (or "-") for file.
func (s *Service) ResolveRef(providerName, target string) (source.Ref, error) {
	kind, ok := s.kinds[providerName]
	if !ok {
		return source.Ref{}, fmt.Errorf("%w: %s", source.ErrUnknownProvider, providerName)
	}
	switch kind {
	case KindGitHub, KindGitHubHTTP:
		return source.ParseRef(target)
	case KindGit:
		return source.LocalRef(target), nil
	default:
		return source.Ref{Path: target}, nil
	}
}

// Fetch retrieves the tree listing for target. Remote providers are served
// through the cache when it is enabled.
func (s *Service) Fetch(ctx context.Context, providerName, target string, opts FetchOptions) (*codebase.Payload, error) {
	ref, err := s.ResolveRef(providerName, target)
	if err != nil {
		return nil, err
	}

	provider, err := s.Registry.Get(providerName)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil && s.isRemote(providerName) {
		provider = cache.Wrap(providerName, provider, s.Cache, s.Config.Cache.TTL, opts.Refresh, s.Logger)
	}

	s.Logger.WithFields(logrus.Fields{
		"provider": providerName,
		"target":   ref.String(),
	}).Debug("Fetching tree")

	payload, err := provider.FetchTree(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", ref.String(), providerName, err)
	}
	return payload, nil
}

func (s *Service) isRemote(providerName string) bool {
	kind := s.kinds[providerName]
	return kind == KindGitHub || kind == KindGitHubHTTP
}

// TreeOptions control how a payload is materialized.
type TreeOptions struct {
	Strict   bool
	MaxDepth int
	DirsOnly bool
	Sort     codebase.SortOrder
}

// Materialize builds, prunes and orders the forest for payload. A nil
// payload or one without a tree yields an empty forest.
func (s *Service) Materialize(payload *codebase.Payload, opts TreeOptions) ([]*codebase.Node, error) {
	if payload == nil || payload.Tree == nil {
		return []*codebase.Node{}, nil
	}

	forest, err := codebase.Build(payload.Tree, codebase.WithStrict(opts.Strict), codebase.WithLogger(s.Logger))
	if err != nil {
		return nil, err
	}

	if opts.MaxDepth > 0 || opts.DirsOnly {
		forest = codebase.Filter(forest, opts.MaxDepth, !opts.DirsOnly)
	}
	codebase.Sort(forest, opts.Sort)
	return forest, nil
}

// DefaultLogger returns a logger writing to stderr at warn level, or debug
// level when verbose.
func DefaultLogger(verbose bool) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logrus.NewEntry(logger)
}
