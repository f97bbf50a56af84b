// Package emitter renders scanned documents and writes them out.
package emitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat accepts json, yaml and yml in any case. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("emitter: unsupported format %q (allowed: json, yaml)", s)
}

// ContentType is the media type of rendered output.
func (f Format) ContentType() string {
	if f == YAML {
		return "application/yaml"
	}
	return "application/json"
}

// Compression applied to written output.
const (
	CompressNone = "none"
	CompressZstd = "zstd"
)

// Options controls how a document is written.
type Options struct {
	Out      string // file path; "" or "-" writes to Stdout
	Format   Format
	Compress string // none or zstd
	Force    bool   // overwrite an existing file
	DryRun   bool   // render and plan only
	Stdout   io.Writer
}

// Result describes what was, or would have been, written.
type Result struct {
	Path    string // absolute path, or "-" for stdout
	Size    int
	Format  Format
	Written bool
}

// Render encodes doc as indented JSON, or as YAML converted from that JSON
// so both formats carry the same fields.
func Render(doc *openapi3.T, f Format) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("emitter: nil document")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	if f != YAML {
		return append(data, '\n'), nil
	}
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("convert document to yaml: %w", err)
	}
	out, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return out, nil
}

// Emit renders doc and writes it according to opts.
func Emit(ctx context.Context, doc *openapi3.T, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	format := opts.Format
	if format == "" {
		format = JSON
	}
	data, err := Render(doc, format)
	if err != nil {
		return nil, err
	}
	data, err = compress(data, opts.Compress)
	if err != nil {
		return nil, err
	}

	out := strings.TrimSpace(opts.Out)
	if out == "" || out == "-" {
		res := &Result{Path: "-", Size: len(data), Format: format}
		if opts.DryRun {
			return res, nil
		}
		w := opts.Stdout
		if w == nil {
			w = os.Stdout
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("write stdout: %w", err)
		}
		res.Written = true
		return res, nil
	}

	abs, err := filepath.Abs(out)
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}
	res := &Result{Path: abs, Size: len(data), Format: format}
	if st, err := os.Stat(abs); err == nil {
		if st.IsDir() {
			return nil, fmt.Errorf("emitter: output path %q is a directory", abs)
		}
		if !opts.Force {
			return nil, fmt.Errorf("emitter: output file %q already exists (use --force to overwrite)", abs)
		}
	}
	if opts.DryRun {
		return res, nil
	}
	if err := writeFile(abs, data); err != nil {
		return nil, err
	}
	res.Written = true
	return res, nil
}

func compress(data []byte, mode string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", CompressNone:
		return data, nil
	case CompressZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, make([]byte, 0, len(data)/3)), nil
	}
	return nil, fmt.Errorf("emitter: unsupported compression %q (allowed: none, zstd)", mode)
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	// atomic write via temp file + rename
	tmp := path + ".tmp-" + time.Now().Format("20060102150405.000000000")
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
