package cli

import (
    "context"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "init",
        Short: "Scaffold a sample apiscan configuration file",
        Long:  "Scaffold a commented apiscan configuration file that documents available options.",
        RunE: func(cmd *cobra.Command, args []string) error {
            out, err := cmd.Flags().GetString("out")
            if err != nil {
                return err
            }
            force, err := cmd.Flags().GetBool("force")
            if err != nil {
                return err
            }
            verbose, err := cmd.Flags().GetBool("verbose")
            if err != nil {
                return err
            }
            cfg := &InitConfig{
                OutputPath: out,
                Force:      force,
                Verbose:    verbose,
            }
            return initRunner(cmd.Context(), cfg, cmd.OutOrStdout())
        },
    }

    cmd.Flags().String("out", "apiscan.yaml", "Where to write the sample config file")
    cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

    return cmd
}

func runInit(ctx context.Context, cfg *InitConfig, stdout io.Writer) error {
    if err := ctx.Err(); err != nil {
        return err
    }

    out := strings.TrimSpace(cfg.OutputPath)
    if out == "" {
        out = "apiscan.yaml"
    }
    absPath, err := filepath.Abs(out)
    if err != nil {
        return fmt.Errorf("init: resolve output path: %w", err)
    }

    if st, err := os.Stat(absPath); err == nil && !cfg.Force {
        if st.Mode().IsRegular() {
            return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
        }
    }

    if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
        return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
    }

    content := strings.TrimSpace(sampleConfigYAML) + "\n"

    // Atomic write via temp + rename
    tmp := absPath + ".tmp-" + time.Now().Format("20060102150405.000000000")
    if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
        return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
    }
    if err := os.Rename(tmp, absPath); err != nil {
        _ = os.Remove(tmp)
        return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
    }
    if cfg.Verbose {
        newLogger(nil, true).Debug("sample config written", "path", absPath, "bytes", len(content))
    }
    fmt.Fprintf(stdout, "Wrote sample config to %s\n", absPath)
    return nil
}

// sampleConfigYAML is a commented example config documenting available options.
// The same keys work in JSON or JSONC files.
const sampleConfigYAML = `# apiscan configuration (YAML)
# All fields are optional. Command-line flags override config values.

# Go package patterns to scan. When omitted, the built-in demo host is used.
# source: [./...]

# Working directory for the source patterns.
# dir: .

# Host name used in document titles and the base URL of the running instance.
# product: Example CI
# baseUrl: http://localhost:8080/

# Plugins own the types in their packages. Main is the fallback type used
# when discovery finds nothing.
# plugins:
#   - id: project-info
#     name: Project Info
#     version: 1.2.0
#     active: true
#     packages: [example.com/ci/plugins/projectinfo/...]
#     main: ProjectInfoAction

# Fallback type names per namespace when discovery finds nothing.
# wellKnown:
#   core: [example.com/ci/model.Instance, example.com/ci/model.Job]

# scan: a single plugin, or every active plugin (out is then a directory).
# plugin: project-info
# all: false

# Output format (json|yaml), file, and compression (none|zstd).
# format: json
# out: ./openapi.json
# compress: none

# Soft deadline per scan and plugins scanned at once with --all.
# timeout: 30s
# concurrency: 4

# Only include operations with these tags (comma-separated or list).
# The only tag applied is "secured".
# includeTags: [secured]

# Exclude operations with these tags.
# excludeTags: []

# Only include these HTTP methods.
# methods: [GET]

# Document the optional wrapper query parameter.
# wrapper: false

# Preview planned outputs without writing files, and overwrite existing files.
# dryRun: false
# force: false

# serve: listen address and route prefix.
# addr: 127.0.0.1:8080
# prefix: /swagger-ui

# Enable verbose logging.
# verbose: false
`
