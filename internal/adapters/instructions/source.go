// Package instructions loads the instruction pool from JSON or YAML files.
package instructions

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
	"gopkg.in/yaml.v3"
)

//go:embed default.json
var defaultInstructions []byte

type document struct {
	RandomInstructions []string `json:"random_instructions" yaml:"random_instructions"`
}

// FileSource reads instructions from a file, or the built-in list when no
// path is configured.
type FileSource struct {
	path string
}

var _ ports.InstructionSource = (*FileSource)(nil)

func NewFileSource(path string) *FileSource {
	return &FileSource{path: strings.TrimSpace(path)}
}

func (s *FileSource) Path() string {
	return s.path
}

func (s *FileSource) Load(ctx context.Context) ([]domain.Instruction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.path == "" {
		return Default()
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read instructions %s: %w", s.path, err)
	}

	items, err := Parse(raw, formatFor(s.path))
	if err != nil {
		return nil, fmt.Errorf("parse instructions %s: %w", s.path, err)
	}
	return items, nil
}

// Default returns the built-in instruction list.
func Default() ([]domain.Instruction, error) {
	return Parse(defaultInstructions, FormatJSON)
}

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes a {"random_instructions": [...]} document. Blank entries
// are dropped; duplicates are kept.
func Parse(raw []byte, format Format) ([]domain.Instruction, error) {
	var doc document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported instruction format %q", format)
	}

	items := make([]domain.Instruction, 0, len(doc.RandomInstructions))
	for _, text := range doc.RandomInstructions {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		items = append(items, domain.Instruction(text))
	}

	if len(items) == 0 {
		return nil, domain.ErrNoInstructions
	}
	return items, nil
}
