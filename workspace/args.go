package workspace

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adamgarcia4/goLearning/ndnagg/sizing"
)

// Defaults used when the caller leaves a field empty.
const (
	DefaultChunkSize   = "1MB"
	DefaultTotalSize   = "10MB"
	labelTimeFormat    = "2006-01-02_15-04-05"
	ArgsFile           = "args.yaml"
	TopologyFile       = "web.conf"
	StructureCopyFile  = "structure.csv"
	argsFilePermission = 0o644
)

// Args is the resolved argument set of a configure run. It is written to
// args.yaml so a workspace records how it was produced.
type Args struct {
	Structure string `yaml:"structure"`
	Label     string `yaml:"label"`
	ChunkSize string `yaml:"chunk_size"`
	TotalSize string `yaml:"total_size"`

	ChunkBytes int64 `yaml:"chunk_bytes"`
	TotalBytes int64 `yaml:"total_bytes"`
	ChunkCount int64 `yaml:"chunk_count"`
}

// Resolve fills defaults and validates the label.
func (a *Args) Resolve(now time.Time) error {
	if a.ChunkSize == "" {
		a.ChunkSize = DefaultChunkSize
	}
	if a.TotalSize == "" {
		a.TotalSize = DefaultTotalSize
	}
	if a.Label == "" {
		a.Label = now.Format(labelTimeFormat)
	}
	return ValidateLabel(a.Label)
}

// ApplyPlan records the derived byte counts.
func (a *Args) ApplyPlan(p sizing.ChunkPlan) {
	a.ChunkBytes = p.ChunkSize
	a.TotalBytes = p.TotalSize
	a.ChunkCount = p.ChunkCount
}

// ValidateLabel rejects labels that would escape the workspace root or
// could not be written unquoted into the role documents.
func ValidateLabel(label string) error {
	switch {
	case label == "", label == ".", label == "..":
		return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	case strings.ContainsAny(label, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidLabel, label)
	case strings.HasPrefix(label, "."):
		return fmt.Errorf("%w: %q must not start with a dot", ErrInvalidLabel, label)
	case strings.ContainsAny(label, "#;`\r\n"), strings.TrimSpace(label) != label:
		// the label is written raw into the role documents
		return fmt.Errorf("%w: %q contains characters not allowed in a configuration value", ErrInvalidLabel, label)
	}
	return nil
}

func writeArgs(path string, a Args) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal args: %w", err)
	}
	return os.WriteFile(path, data, argsFilePermission)
}

func readArgs(path string) (Args, error) {
	var a Args
	data, err := os.ReadFile(path)
	if err != nil {
		return a, err
	}
	if err := yaml.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("parse %s: %w", path, err)
	}
	return a, nil
}
