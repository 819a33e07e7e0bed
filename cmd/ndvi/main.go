package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, bannercolor.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var quiet bool
	root := &cobra.Command{
		Use:           "ndvi",
		Short:         "Simulated NDVI crop health analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if quiet {
				return
			}
			banner := figure.NewFigure("NDVI", "isometric1", true)
			bannercolor.Cyan("%s", banner.String())
		},
	}
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "do not print the banner")

	root.AddCommand(
		newAnalyzeCmd(),
		newBatchCmd(),
		newLocationsCmd(),
		newHealthCmd(),
	)
	return root
}
