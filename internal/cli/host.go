package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/apiscan/internal/demohost"
	"github.com/mark3labs/apiscan/internal/host"
	"github.com/mark3labs/apiscan/internal/host/reflecthost"
	"github.com/mark3labs/apiscan/internal/host/srchost"
)

// openHost loads the configured source packages, or the demo host when none
// are configured.
func openHost(ctx context.Context, cfg *Config, logger *log.Logger) (host.Host, error) {
	if len(cfg.Source) == 0 {
		opts := []reflecthost.Option{reflecthost.WithLogger(logger)}
		if cfg.BaseURL != "" {
			opts = append(opts, reflecthost.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Product != "" {
			opts = append(opts, reflecthost.WithName(cfg.Product))
		}
		logger.Debug("no source packages configured, using the demo host")
		return demohost.New(opts...), nil
	}
	h, err := srchost.Open(ctx, srchost.Config{
		Dir:       cfg.Dir,
		Patterns:  cfg.Source,
		Product:   cfg.Product,
		BaseURL:   cfg.BaseURL,
		Plugins:   cfg.Plugins,
		WellKnown: cfg.WellKnown,
	}, srchost.WithLogger(logger))
	if err != nil {
		return nil, usageErrorf("%v\nHint: check --source and --dir.", err)
	}
	return h, nil
}
