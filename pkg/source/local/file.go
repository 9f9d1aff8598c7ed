package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-codetree/pkg/codebase"
	"github.com/mattsolo1/grove-codetree/pkg/source"
)

// ErrInvalidPayload wraps decode failures so callers can tell them apart
// from I/O errors.
var ErrInvalidPayload = errors.New("invalid payload")

// FileProvider reads a saved tree payload from disk, or from stdin when the
// path is "-". Files ending in .yaml or .yml are decoded as YAML.
type FileProvider struct {
	Stdin io.Reader
}

// NewFileProvider creates a new FileProvider reading "-" from os.Stdin.
func NewFileProvider() *FileProvider {
	return &FileProvider{Stdin: os.Stdin}
}

// Name returns the name of the provider.
func (p *FileProvider) Name() string {
	return "file"
}

// FetchTree decodes the payload stored at ref.Path. A payload without a
// tree field decodes successfully with a nil Tree.
func (p *FileProvider) FetchTree(ctx context.Context, ref source.Ref) (*codebase.Payload, error) {
	data, err := p.read(ref.Path)
	if err != nil {
		return nil, err
	}
	return DecodePayload(ref.Path, data)
}

func (p *FileProvider) read(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(p.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}

// DecodePayload decodes JSON, or YAML when name has a YAML extension.
func DecodePayload(name string, data []byte) (*codebase.Payload, error) {
	var payload codebase.Payload
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("%w: yaml: %v", ErrInvalidPayload, err)
		}
	default:
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("%w: json: %v", ErrInvalidPayload, err)
		}
	}
	return &payload, nil
}
