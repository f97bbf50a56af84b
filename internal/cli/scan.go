package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/apiscan/internal/emitter"
	"github.com/mark3labs/apiscan/internal/host"
	"github.com/mark3labs/apiscan/internal/scan"
	"github.com/spf13/cobra"
)

var scanRunner = runScan

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the host or one plugin and write its OpenAPI document",
		Long: "Scan the host or one plugin and write its OpenAPI document. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  apiscan scan --out core.json
  apiscan scan --plugin project-info --format yaml
  apiscan scan --all --out ./docs
  apiscan --config apiscan.yaml scan --source ./... --force`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return scanRunner(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.String("plugin", "", "Scan this plugin instead of the core")
	flags.Bool("all", false, "Scan the core and every active plugin; --out is a directory")
	flags.StringSlice("source", nil, "Go package patterns to scan instead of the demo host")
	flags.String("dir", "", "Working directory for --source patterns")
	flags.String("product", "", "Host name used in document titles")
	flags.String("base-url", "", "Base URL of the running instance")
	flags.String("format", "", "Output format (json|yaml); defaults to json")
	flags.String("out", "", "Output file, or - for stdout (default)")
	flags.Duration("timeout", 0, "Soft deadline per scan; partial documents are marked")
	flags.Int("concurrency", 0, "Plugins scanned at once with --all")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.StringSlice("methods", nil, "Only include these HTTP methods")
	flags.StringArray("paths", nil, "Only include paths matching this regular expression (repeatable)")
	flags.String("security-scheme", "", "Name of the security scheme secured operations reference")
	flags.Bool("wrapper", false, "Document the optional wrapper query parameter")
	flags.String("compress", "", "Compress output (none|zstd)")
	flags.Bool("dry-run", false, "Scan and plan the output without writing")
	flags.Bool("force", false, "Overwrite existing output when set")

	return cmd
}

func runScan(ctx context.Context, cfg *Config, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, cfg.Verbose)
	h, err := openHost(ctx, cfg, logger)
	if err != nil {
		return err
	}
	svc := scan.New(h,
		scan.WithLogger(logger),
		scan.WithTimeout(cfg.Timeout),
		scan.WithConcurrency(cfg.Concurrency),
		scan.WithBuildOptions(cfg.buildOptions()...),
	)
	format, _ := emitter.ParseFormat(cfg.Format)

	if cfg.All {
		return scanAll(ctx, svc, cfg, format, stdout, logger)
	}

	ns := cfg.Plugin
	if ns == "" {
		ns = host.Core
	}
	res, err := svc.ScanNamespace(ctx, ns)
	if err != nil {
		return userFacing(err)
	}
	report(logger, res)
	out, err := emitter.Emit(ctx, res.Document, emitter.Options{
		Out:      cfg.Out,
		Format:   format,
		Compress: cfg.Compress,
		Force:    cfg.Force,
		DryRun:   cfg.DryRun,
		Stdout:   stdout,
	})
	if err != nil {
		return wrapOutputError(err, cfg.Out)
	}
	if cfg.DryRun {
		printPlan(stdout, []*emitter.Result{out})
	}
	return nil
}

// scanAll writes one file per namespace into the --out directory.
func scanAll(ctx context.Context, svc *scan.Service, cfg *Config, format emitter.Format, stdout io.Writer, logger *log.Logger) error {
	dir := cfg.Out
	if dir == "" || dir == "-" {
		dir = "."
	}
	if st, err := os.Stat(dir); err == nil && !st.IsDir() {
		return usageErrorf("--out %q must be a directory with --all", dir)
	}

	results := svc.ScanInstalled(ctx)
	results[host.Core] = svc.ScanCore(ctx)
	namespaces := make([]string, 0, len(results))
	for ns := range results {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	ext := "." + string(format)
	if cfg.Compress == emitter.CompressZstd {
		ext += ".zst"
	}
	var planned []*emitter.Result
	for _, ns := range namespaces {
		res := results[ns]
		report(logger, res)
		out, err := emitter.Emit(ctx, res.Document, emitter.Options{
			Out:      filepath.Join(dir, ns+ext),
			Format:   format,
			Compress: cfg.Compress,
			Force:    cfg.Force,
			DryRun:   cfg.DryRun,
		})
		if err != nil {
			return wrapOutputError(err, dir)
		}
		planned = append(planned, out)
	}
	if cfg.DryRun {
		printPlan(stdout, planned)
	}
	return nil
}

func report(logger *log.Logger, res *scan.Result) {
	for _, d := range res.Diagnostics {
		logger.Debug("diagnostic", "namespace", res.Namespace, "code", d.Code, "type", d.Type, "msg", d.Message)
	}
	if res.Partial {
		logger.Warn("scan deadline reached, document is partial", "namespace", res.Namespace)
	}
	logger.Info("scanned",
		"namespace", res.Namespace,
		"types", res.Types,
		"operations", res.Operations,
		"diagnostics", len(res.Diagnostics),
		"fallback", res.Fallback,
	)
}

func printPlan(w io.Writer, results []*emitter.Result) {
	fmt.Fprintf(w, "Planned writes (%d files):\n", len(results))
	for _, r := range results {
		fmt.Fprintf(w, "- %s (%s, %d bytes)\n", r.Path, r.Format, r.Size)
	}
}

func wrapOutputError(err error, out string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "already exists") || strings.Contains(lower, "directory") {
		return usageErrorf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", out, msg)
	}
	return err
}
