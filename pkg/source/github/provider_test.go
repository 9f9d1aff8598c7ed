package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-codetree/pkg/source"
)

const treeResponse = `{
  "sha": "9fb037999f264ba9a7fc6274d15fa3ae2ab98312",
  "url": "https://api.github.com/repos/octocat/Hello-World/trees/9fb0",
  "tree": [
    {"path": "file.rb", "mode": "100644", "type": "blob", "size": 30, "sha": "44b4", "url": "https://api.github.com/repos/octocat/Hello-World/git/blobs/44b4"},
    {"path": "subdir", "mode": "040000", "type": "tree", "sha": "f484", "url": "https://api.github.com/repos/octocat/Hello-World/git/trees/f484"},
    {"path": "subdir/exec_file", "mode": "100755", "type": "blob", "size": 75, "sha": "45b9", "url": "https://api.github.com/repos/octocat/Hello-World/git/blobs/45b9"}
  ],
  "truncated": false
}`

func testLogger() (*logrus.Entry, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	return logrus.NewEntry(logger), hook
}

func TestGitHubProvider_FetchTree(t *testing.T) {
	logger, _ := testLogger()
	p := NewProvider(logger)

	var gotArgs []string
	p.run = func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return []byte(treeResponse), nil
	}

	payload, err := p.FetchTree(context.Background(), source.Ref{Owner: "octocat", Repo: "Hello-World", Ref: "main"})
	require.NoError(t, err)

	assert.Equal(t, []string{"gh", "api", "repos/octocat/Hello-World/git/trees/main?recursive=1"}, gotArgs)
	require.Len(t, payload.Tree, 3)
	assert.Equal(t, "subdir/exec_file", payload.Tree[2].Path)
	require.NotNil(t, payload.Tree[2].Size)
	assert.Equal(t, int64(75), *payload.Tree[2].Size)
	assert.Nil(t, payload.Tree[1].Size)
}

func TestGitHubProvider_Errors(t *testing.T) {
	logger, _ := testLogger()
	ref := source.Ref{Owner: "o", Repo: "r", Ref: "HEAD"}

	t.Run("command failure", func(t *testing.T) {
		p := NewProvider(logger)
		p.run = func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
			return nil, errors.New("HTTP 404: Not Found")
		}
		_, err := p.FetchTree(context.Background(), ref)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("bad json", func(t *testing.T) {
		p := NewProvider(logger)
		p.run = func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
			return []byte("not json"), nil
		}
		_, err := p.FetchTree(context.Background(), ref)
		assert.Error(t, err)
	})

	t.Run("missing tree", func(t *testing.T) {
		p := NewProvider(logger)
		p.run = func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
			return []byte(`{"message":"Not Found"}`), nil
		}
		_, err := p.FetchTree(context.Background(), ref)
		assert.Error(t, err)
	})
}

func TestGitHubProvider_WarnsWhenTruncated(t *testing.T) {
	logger, hook := testLogger()
	p := NewProvider(logger)
	p.run = func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
		return []byte(`{"tree":[],"truncated":true}`), nil
	}

	payload, err := p.FetchTree(context.Background(), source.Ref{Owner: "o", Repo: "r", Ref: "HEAD"})
	require.NoError(t, err)
	assert.True(t, payload.Truncated)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestHTTPProvider_FetchTree(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octocat/Hello-World/git/trees/main", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(treeResponse))
	}))
	defer server.Close()

	logger, _ := testLogger()
	p := NewHTTPProvider(server.URL+"/", "secret", logger)
	assert.Equal(t, "githttp", p.Name())

	payload, err := p.FetchTree(context.Background(), source.Ref{Owner: "octocat", Repo: "Hello-World", Ref: "main"})
	require.NoError(t, err)
	assert.Len(t, payload.Tree, 3)
	assert.Equal(t, "9fb037999f264ba9a7fc6274d15fa3ae2ab98312", payload.SHA)
}

func TestHTTPProvider_BranchRefWithSlash(t *testing.T) {
	tests := []struct {
		ref      string
		wantPath string
	}{
		{ref: "feature/x", wantPath: "/repos/o/r/git/trees/feature/x"},
		{ref: "release/v1 rc", wantPath: "/repos/o/r/git/trees/release/v1%20rc"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantPath, r.URL.EscapedPath())
				_, _ = w.Write([]byte(treeResponse))
			}))
			defer server.Close()

			logger, _ := testLogger()
			ref := source.Ref{Owner: "o", Repo: "r", Ref: tt.ref}
			_, err := NewHTTPProvider(server.URL, "", logger).FetchTree(context.Background(), ref)
			require.NoError(t, err)
		})
	}

	// Both providers address the same ref path.
	assert.Equal(t, "repos/o/r/git/trees/feature/x?recursive=1", treesEndpoint(source.Ref{Owner: "o", Repo: "r", Ref: "feature/x"}))
}

func TestHTTPProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer server.Close()

	logger, _ := testLogger()
	p := NewHTTPProvider(server.URL, "", logger)

	_, err := p.FetchTree(context.Background(), source.Ref{Owner: "o", Repo: "r", Ref: "HEAD"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Not Found", apiErr.Message)
	assert.Equal(t, "github api: 404 Not Found", err.Error())
}

func TestNewHTTPProvider_DefaultBaseURL(t *testing.T) {
	p := NewHTTPProvider("", "", nil)
	assert.Equal(t, DefaultBaseURL, p.BaseURL)
}
