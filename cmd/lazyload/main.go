package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	lzerrors "github.com/vango-dev/lazyload/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬  ┌─┐┌─┐┬ ┬┬  ┌─┐┌─┐┌┬┐
  │  ├─┤┌─┘└┬┘│  │ │├─┤ ││
  ┴─┘┴ ┴└─┘ ┴ ┴─┘└─┘┴ ┴─┴┘
`

func main() {
	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		lzerrors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lazyload",
		Short: "Viewport-driven lazy activation for page elements",
		Long: `lazyload defers loading images until they approach the viewport.

It can replay a page offline to show which elements activate at each
scroll position, or serve live sessions over WebSocket that mirror a
browser page and stream back attribute patches.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		simulateCmd(),
		serveCmd(),
		versionCmd(),
	)
	return rootCmd
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}
