package e2e

import (
    "bytes"
    "encoding/hex"
    "io"
    "os"
    "os/exec"
    "path/filepath"
    "sort"
    "strings"
    "testing"

    "github.com/getkin/kin-openapi/openapi3"
    cli "github.com/mark3labs/apiscan/internal/cli"
    "github.com/zeebo/blake3"
)

// a small source tree with one core bean and one plugin bean
var sourceModule = map[string]string{
    "go.mod": "module example.com/ci\n\ngo 1.22\n",
    "model/model.go": "" +
        "package model\n\n" +
        "type Result string\n\n" +
        "const (\n\tSuccess Result = \"SUCCESS\"\n\tFailure Result = \"FAILURE\"\n)\n\n" +
        "//apiscan:bean\n" +
        "type Build struct{}\n\n" +
        "//apiscan:export\n" +
        "func (b *Build) GetResult() Result { return Success }\n\n" +
        "//apiscan:export visibility=1\n" +
        "func (b *Build) GetPrevious() *Build { return nil }\n\n" +
        "//apiscan:export\n" +
        "func (b *Build) Delete() error { return nil }\n",
    "plugins/pets/pets.go": "" +
        "package pets\n\n" +
        "//apiscan:bean\n" +
        "type PetAction struct{}\n\n" +
        "//apiscan:export\n" +
        "func (p *PetAction) GetNames() []string { return nil }\n",
}

const sourceConfig = `
product: Pet CI
baseUrl: http://pets.example.com/
plugins:
  - id: pets
    name: Pets
    version: 0.1.0
    packages: [example.com/ci/plugins/pets/...]
`

func writeTree(t *testing.T, files map[string]string) string {
    t.Helper()
    dir := t.TempDir()
    for name, content := range files {
        p := filepath.Join(dir, filepath.FromSlash(name))
        if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
            t.Fatalf("mkdir: %v", err)
        }
        if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
            t.Fatalf("write %s: %v", name, err)
        }
    }
    return dir
}

func runCLI(t *testing.T, args ...string) string {
    t.Helper()
    var out bytes.Buffer
    root := cli.NewRootCmd()
    root.SetOut(&out)
    root.SetErr(io.Discard)
    root.SetArgs(args)
    if err := root.Execute(); err != nil {
        t.Fatalf("cli execute %v: %v", args, err)
    }
    return out.String()
}

func digestDir(t *testing.T, dir string) (files []string, sum string) {
    t.Helper()
    var list []string
    h := blake3.New()
    err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
        if err != nil { return err }
        if d.IsDir() { return nil }
        rel, rerr := filepath.Rel(dir, path)
        if rerr != nil { return rerr }
        rel = filepath.ToSlash(rel)
        list = append(list, rel)
        // hash path + contents to be robust
        _, _ = h.Write([]byte(rel))
        b, rerr := os.ReadFile(path)
        if rerr != nil { return rerr }
        _, _ = h.Write(b)
        return nil
    })
    if err != nil {
        t.Fatalf("walk %s: %v", dir, err)
    }
    sort.Strings(list)
    return list, hex.EncodeToString(h.Sum(nil))
}

func TestE2E_ScanAll_Deterministic(t *testing.T) {
    t.Parallel()
    dir1 := t.TempDir()
    dir2 := t.TempDir()

    runCLI(t, "scan", "--all", "--out", dir1, "--force")
    runCLI(t, "scan", "--all", "--out", dir2, "--force")

    files1, sum1 := digestDir(t, dir1)
    files2, sum2 := digestDir(t, dir2)
    if !slicesEqual(files1, files2) || sum1 != sum2 {
        t.Fatalf("scanned outputs differ between runs\nfiles1=%v\nfiles2=%v\nsum1=%s\nsum2=%s", files1, files2, sum1, sum2)
    }
    if !slicesEqual(files1, []string{"build-stats.json", "core.json", "project-info.json"}) {
        t.Fatalf("unexpected files: %v", files1)
    }
}

func TestE2E_ScanSource(t *testing.T) {
    t.Parallel()
    if !haveCmd("go") {
        t.Skip("go command not available for package loading")
    }
    src := writeTree(t, sourceModule)
    cfgPath := filepath.Join(t.TempDir(), "apiscan.yaml")
    if err := os.WriteFile(cfgPath, []byte(sourceConfig), 0o600); err != nil {
        t.Fatalf("write config: %v", err)
    }

    out := runCLI(t, "--config", cfgPath, "scan", "--source", "./...", "--dir", src)
    doc, err := openapi3.NewLoader().LoadFromData([]byte(out))
    if err != nil {
        t.Fatalf("core document: %v", err)
    }
    if doc.Info.Title != "Pet CI Core REST API" || doc.Servers[0].URL != "http://pets.example.com/" {
        t.Fatalf("meta = %s %v", doc.Info.Title, doc.Servers)
    }
    result := doc.Paths["/build/result"]
    if result == nil || result.Get == nil {
        t.Fatalf("missing GET /build/result")
    }
    if prev := doc.Paths["/build/previous"]; prev == nil || prev.Get == nil || len(prev.Get.Tags) == 0 {
        t.Fatalf("secured operation should be tagged")
    }
    if del := doc.Paths["/build/delete"]; del == nil || del.Delete == nil {
        t.Fatalf("missing DELETE /build/delete")
    }

    plugin := runCLI(t, "--config", cfgPath, "scan", "--source", "./...", "--dir", src, "--plugin", "pets", "--format", "yaml")
    if !strings.Contains(plugin, "/pets/pet-action/names:") || !strings.Contains(plugin, "title: Pets REST API") {
        t.Fatalf("plugin document incomplete:\n%s", plugin)
    }
}

func haveCmd(name string) bool {
    _, err := exec.LookPath(name)
    return err == nil
}

func slicesEqual(a, b []string) bool {
    if len(a) != len(b) { return false }
    for i := range a {
        if a[i] != b[i] { return false }
    }
    return true
}
