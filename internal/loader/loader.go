// Package loader reads author graphs from YAML, CUE, JSON or HCL files.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/slayyden/Graphite/internal/graph"
)

// Format is the syntax of a graph file.
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	// FormatCUE also reads JSON, which is valid CUE.
	FormatCUE
	FormatHCL
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatCUE:
		return "cue"
	case FormatHCL:
		return "hcl"
	default:
		return "unknown"
	}
}

// FormatOf picks a format from a file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".cue", ".json":
		return FormatCUE
	case ".hcl":
		return FormatHCL
	default:
		return FormatUnknown
	}
}

// LoadFile reads one graph file, or every CUE file of a package when path
// is a directory.
func LoadFile(path string) (*graph.Document, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, newError(ErrCodeNotFound, token.NoPos, "graph file not found: %s", path)
	}
	if err != nil {
		return nil, newError(ErrCodeNotFound, token.NoPos, "error accessing %s: %v", path, err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}

	format := FormatOf(path)
	if format == FormatUnknown {
		return nil, newError(ErrCodeFormat, token.NoPos, "unsupported graph file extension %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(ErrCodeGeneric, token.NoPos, "failed to read %s: %v", path, err)
	}
	return Parse(path, data, format)
}

// Parse decodes graph source. name is used in CUE and HCL positions.
func Parse(name string, data []byte, format Format) (*graph.Document, error) {
	var (
		spec *documentSpec
		err  error
	)
	switch format {
	case FormatYAML:
		spec, err = decodeYAML(data)
	case FormatCUE:
		ctx := cuecontext.New()
		spec, err = decodeCUE(ctx.CompileBytes(data, cue.Filename(name)))
	case FormatHCL:
		spec, err = decodeHCL(name, data)
	default:
		return nil, newError(ErrCodeFormat, token.NoPos, "unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}
	return spec.build()
}

// LoadDir unifies every CUE file of the package in dir into one graph
// document.
func LoadDir(dir string) (*graph.Document, error) {
	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, newError(ErrCodeScanError, token.NoPos, "error scanning directory: %v", err)
	}
	if len(files) == 0 {
		return nil, newError(ErrCodeNoFiles, token.NoPos, "no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, newError(ErrCodeParseFailed, token.NoPos, "no CUE instances loaded")
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fromCUE(ErrCodeParseFailed, inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fromCUE(ErrCodeBuildFailed, err)
	}
	spec, err := decodeCUE(value)
	if err != nil {
		return nil, err
	}
	doc, err := spec.build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return doc, nil
}

// FindCUEFiles returns the .cue files directly inside dir. Subdirectories
// are separate packages and are not included.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}
