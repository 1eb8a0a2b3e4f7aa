package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:           "grammarsym",
	Short:         "Symbol tables for grammar manifests",
	Long:          `grammarsym loads grammar manifests, builds one symbol table per grammar and answers outline, reference and action queries against them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(outlineCmd)
	rootCmd.AddCommand(actionsCmd)
	rootCmd.AddCommand(countsCmd)
	rootCmd.AddCommand(occurrencesCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(atCmd)
	rootCmd.AddCommand(unreferencedCmd)
	rootCmd.AddCommand(grammarsCmd)
	rootCmd.AddCommand(impactCmd)
	rootCmd.AddCommand(watchCmd)

	rootCmd.PersistentFlags().String("config", defaultConfigPath, "path to config file")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("format", "pretty", "output format (pretty|json)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
