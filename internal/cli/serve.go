package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mark3labs/apiscan/internal/scan"
	"github.com/mark3labs/apiscan/internal/server"
	"github.com/mark3labs/apiscan/internal/versions"
	"github.com/spf13/cobra"
)

var serveRunner = runServe

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve documents, the api list and the version registry over HTTP",
		Example: strings.TrimSpace(`  apiscan serve --addr :8080
  apiscan serve --source ./... --base-url https://ci.example.com/ --prefix /swagger-ui`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return serveRunner(cmd.Context(), cfg, cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.String("addr", defaultAddr, "Listen address")
	flags.String("prefix", server.DefaultPrefix, "Path prefix of the document routes")
	flags.StringSlice("source", nil, "Go package patterns to scan instead of the demo host")
	flags.String("dir", "", "Working directory for --source patterns")
	flags.String("product", "", "Host name used in document titles")
	flags.String("base-url", "", "Base URL advertised in documents and the api list")
	flags.Duration("timeout", 0, "Soft deadline per scan; partial documents are marked")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.StringSlice("methods", nil, "Only include these HTTP methods")
	flags.StringArray("paths", nil, "Only include paths matching this regular expression (repeatable)")
	flags.String("security-scheme", "", "Name of the security scheme secured operations reference")
	flags.Bool("wrapper", false, "Document the optional wrapper query parameter")

	return cmd
}

func runServe(ctx context.Context, cfg *Config, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(stderr, cfg.Verbose)
	h, err := openHost(ctx, cfg, logger)
	if err != nil {
		return err
	}
	svc := scan.New(h,
		scan.WithLogger(logger),
		scan.WithTimeout(cfg.Timeout),
		scan.WithBuildOptions(cfg.buildOptions()...),
	)
	reg := versions.New(versions.WithLogger(logger), versions.WithMount(cfg.Prefix))
	srv, err := server.New(svc, reg, server.WithLogger(logger), server.WithPrefix(cfg.Prefix))
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, cfg.Addr)
}
