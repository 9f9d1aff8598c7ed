package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-codetree/pkg/codebase"
)

func sampleForest(t *testing.T) []*codebase.Node {
	t.Helper()
	big := int64(2048)
	small := int64(12)
	forest, err := codebase.Build([]codebase.TreeEntry{
		{Path: "README.md", Type: codebase.EntryBlob, SHA: "0123456789abcdef", Size: &small},
		{Path: "cmd/main.go", Type: codebase.EntryBlob, SHA: "aaaaaaaaaa", Size: &big},
		{Path: "pkg/a/a.go", Type: codebase.EntryBlob, SHA: "bbbbbbbbbb", Size: &small},
		{Path: "pkg/b.go", Type: codebase.EntryBlob, SHA: "cccccccccc", Size: &small},
	})
	require.NoError(t, err)
	return forest
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleForest(t), TextOptions{}))

	want := strings.Join([]string{
		"├── cmd/",
		"│   └── main.go",
		"├── pkg/",
		"│   ├── a/",
		"│   │   └── a.go",
		"│   └── b.go",
		"└── README.md",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestText_Extras(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleForest(t), TextOptions{ShowSize: true, ShowSHA: true}))

	out := buf.String()
	assert.Contains(t, out, "main.go (2.0 KiB, aaaaaaa)")
	assert.Contains(t, out, "README.md (12 B, 0123456)")
	// Inferred directories carry no sha or size.
	assert.Contains(t, out, "├── cmd/\n")
}

func TestText_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, []*codebase.Node{}, TextOptions{}))
	assert.Empty(t, buf.String())
}

func TestJSONShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Forest(&buf, sampleForest(t), FormatJSON, TextOptions{}))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 3)

	cmd := decoded[0]
	assert.Equal(t, "directory", cmd["type"])
	assert.NotContains(t, cmd, "size")
	children := cmd["children"].([]any)
	require.Len(t, children, 1)
	main := children[0].(map[string]any)
	assert.Equal(t, "file", main["type"])
	assert.Equal(t, "cmd/main.go", main["path"])
	assert.Equal(t, float64(2048), main["size"])
	assert.NotContains(t, main, "children")
}

func TestYAMLOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Forest(&buf, sampleForest(t), FormatYAML, TextOptions{}))

	var decoded []*codebase.Node
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, "pkg/a/a.go", decoded[1].Children[0].Children[0].Path)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"text": FormatText, "json": FormatJSON, "yaml": FormatYAML, "yml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, codebase.Summary{Files: 1234, Directories: 56, TotalBytes: 9876543, MaxDepth: 7}))
	assert.Equal(t, "56 directories, 1,234 files, 9,876,543 bytes (max depth 7)\n", buf.String())
}

func TestSummary_Singular(t *testing.T) {
	tests := []struct {
		name    string
		summary codebase.Summary
		want    string
	}{
		{name: "one of each", summary: codebase.Summary{Files: 1, Directories: 1, TotalBytes: 1, MaxDepth: 2}, want: "1 directory, 1 file, 1 byte (max depth 2)\n"},
		{name: "empty", summary: codebase.Summary{}, want: "0 directories, 0 files, 0 bytes (max depth 0)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Summary(&buf, tt.summary))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", formatBytes(0))
	assert.Equal(t, "1023 B", formatBytes(1023))
	assert.Equal(t, "1.0 KiB", formatBytes(1024))
	assert.Equal(t, "1.5 MiB", formatBytes(1536*1024))
}
