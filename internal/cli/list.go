package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/mark3labs/apiscan/internal/host"
	"github.com/mark3labs/apiscan/internal/versions"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = cellStyle.Foreground(lipgloss.Color("#6B7280"))
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed plugins and the URLs their documents are served under",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return runList(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringSlice("source", nil, "Go package patterns to scan instead of the demo host")
	flags.String("dir", "", "Working directory for --source patterns")
	flags.String("base-url", "", "Base URL of the running instance")
	flags.String("prefix", "", "Path prefix of the document routes")

	return cmd
}

func runList(ctx context.Context, cfg *Config, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, cfg.Verbose)
	h, err := openHost(ctx, cfg, logger)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, renderPlugins(h, cfg.Prefix))
	return nil
}

// renderPlugins tabulates the core and every plugin. Inactive plugins have
// no document and are shown muted.
func renderPlugins(h host.Host, prefix string) string {
	reg := versions.New(versions.WithLogger(log.New(io.Discard)), versions.WithMount(prefix))
	mount := strings.TrimRight(h.BaseURL(), "/") + "/" + strings.Trim(prefix, "/")

	rows := [][]string{{host.Core, h.Name(), "", "true", versions.Normalize(mount + "/core-api"), ""}}
	inactive := map[int]bool{}
	for _, p := range h.Plugins() {
		if !p.Active {
			inactive[len(rows)] = true
			rows = append(rows, []string{p.ID, displayName(p), p.Version, "false", "", ""})
			continue
		}
		url, err := reg.Register(p.ID, versions.CurrentPluginVersion, mount+"/plugin/"+p.ID+"/rest/api/"+versions.CurrentPluginVersion)
		if err != nil {
			url = err.Error()
		}
		_, direct := reg.DirectURLs(url)
		rows = append(rows, []string{p.ID, displayName(p), p.Version, strconv.FormatBool(p.Active), url, direct})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("ID", "NAME", "VERSION", "ACTIVE", "DOCUMENT", "DIRECT").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case inactive[row]:
				return mutedStyle
			}
			return cellStyle
		})
	return t.String()
}

func displayName(p host.Plugin) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ID
}
