package cli

import (
    "fmt"
    "io"
    "os"

    "github.com/charmbracelet/log"
    "github.com/spf13/cobra"
)

// Execute runs the apiscan CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:           "apiscan",
        Short:         "Describe a host's exported API surface as OpenAPI documents",
        Long:          "apiscan discovers the types a host and its plugins export, and renders their operations as OpenAPI 3 documents on disk or over HTTP.",
        SilenceErrors: true,
        SilenceUsage:  true,
        RunE: func(cmd *cobra.Command, args []string) error {
            return cmd.Help()
        },
    }

    // Convert Cobra flag errors (like unknown flags) into friendly usage errors
    // that also show the command's help text.
    cmd.SetFlagErrorFunc(flagError)

    cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML, JSON or JSONC)")
    cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")

    for _, sub := range []*cobra.Command{newScanCmd(), newServeCmd(), newListCmd(), newInitCmd()} {
        sub.SetFlagErrorFunc(flagError)
        cmd.AddCommand(sub)
    }

    return cmd
}

func flagError(c *cobra.Command, err error) error {
    return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
}

// newLogger is the logger handed to every component. It writes to w,
// usually stderr, and logs debug output when verbose is set.
func newLogger(w io.Writer, verbose bool) *log.Logger {
    if w == nil {
        w = os.Stderr
    }
    logger := log.NewWithOptions(w, log.Options{Prefix: "apiscan"})
    if verbose {
        logger.SetLevel(log.DebugLevel)
    }
    return logger
}
