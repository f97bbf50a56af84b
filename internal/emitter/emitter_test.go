package emitter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/klauspost/compress/zstd"
	"github.com/mark3labs/apiscan/internal/host/hosttest"
	"github.com/mark3labs/apiscan/internal/spec"
	"gopkg.in/yaml.v3"
)

func sampleDoc() *openapi3.T {
	widget := hosttest.NewType("", "example.Widget").Op("getName", hosttest.String())
	et, _ := spec.Inspect(widget)
	return spec.Assemble(spec.Meta{Title: "Sample Core REST API", Version: "1.0.0", ServerURL: "http://ci/"}, []spec.ExportedType{et})
}

func TestEmit_DryRun_Plan(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "openapi.json")

	res, err := Emit(context.Background(), sampleDoc(), Options{Out: path, DryRun: true})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if res.Path != path || res.Size == 0 || res.Written || res.Format != JSON {
		t.Fatalf("result = %+v", res)
	}
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("dry run wrote %s", path)
	}
}

func TestEmit_WriteAndReload(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "openapi.json")

	res, err := Emit(context.Background(), sampleDoc(), Options{Out: path})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if !res.Written {
		t.Fatalf("expected write")
	}
	doc, err := openapi3.NewLoader().LoadFromFile(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if doc.Paths["/widget/name"] == nil || doc.Info.Title != "Sample Core REST API" {
		t.Fatalf("reloaded document incomplete")
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestEmit_NoForce_ExistingFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "openapi.json")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("prewrite: %v", err)
	}
	if _, err := Emit(context.Background(), sampleDoc(), Options{Out: path}); err == nil {
		t.Fatalf("expected error on existing file without force")
	}
	if _, err := Emit(context.Background(), sampleDoc(), Options{Out: path, Force: true}); err != nil {
		t.Fatalf("force overwrite: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !bytes.HasPrefix(data, []byte("{")) {
		t.Fatalf("file not overwritten: %q", data)
	}
}

func TestEmit_YAMLToStdout(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	res, err := Emit(context.Background(), sampleDoc(), Options{Out: "-", Format: YAML, Stdout: &buf})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if res.Path != "-" || !res.Written || res.Size != buf.Len() {
		t.Fatalf("result = %+v", res)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &tree); err != nil {
		t.Fatalf("yaml output invalid: %v", err)
	}
	if tree["openapi"] != "3.0.1" {
		t.Fatalf("openapi = %v", tree["openapi"])
	}
	if !strings.Contains(buf.String(), "/widget/name:") {
		t.Fatalf("paths missing from yaml output")
	}
}

func TestEmit_Zstd(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if _, err := Emit(context.Background(), sampleDoc(), Options{Stdout: &buf, Compress: CompressZstd}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	defer dec.Close()
	plain, err := dec.DecodeAll(buf.Bytes(), nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := openapi3.NewLoader().LoadFromData(plain); err != nil {
		t.Fatalf("decompressed document invalid: %v", err)
	}
	if _, err := Emit(context.Background(), sampleDoc(), Options{Stdout: &buf, Compress: "lz4"}); err == nil {
		t.Fatalf("expected unsupported compression error")
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Format{"": JSON, "JSON": JSON, "yml": YAML, " yaml ": YAML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}
