package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-codetree/pkg/codebase"
	"github.com/mattsolo1/grove-codetree/pkg/source"
)

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com"

// APIError is a non-2xx response from the GitHub REST API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("github api: %d %s", e.StatusCode, e.Message)
}

// HTTPProvider implements source.Provider against the REST API directly,
// authenticating with a bearer token.
type HTTPProvider struct {
	BaseURL string
	Token   string
	Client  *http.Client
	logger  *logrus.Entry
}

// NewHTTPProvider creates an HTTPProvider. An empty baseURL means DefaultBaseURL.
func NewHTTPProvider(baseURL, token string, logger *logrus.Entry) *HTTPProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &HTTPProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// Name returns the name of the provider.
func (p *HTTPProvider) Name() string {
	return "githttp"
}

// FetchTree fetches the recursive tree listing of a repository.
func (p *HTTPProvider) FetchTree(ctx context.Context, ref source.Ref) (*codebase.Payload, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1",
		p.BaseURL, url.PathEscape(ref.Owner), url.PathEscape(ref.Repo), escapeRef(ref.Ref))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if p.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.Token)
	}

	p.logger.WithField("url", endpoint).Debug("Fetching tree")
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tree: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &msg) == nil {
			apiErr.Message = msg.Message
		}
		return nil, apiErr
	}

	payload, err := decodePayload(body)
	if err != nil {
		return nil, err
	}
	warnIfTruncated(p.logger, ref, payload)
	return payload, nil
}

// escapeRef escapes each segment of a ref, keeping the slashes of branch
// names like feature/x.
func escapeRef(ref string) string {
	segments := strings.Split(ref, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
