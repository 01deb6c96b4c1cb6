package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pixelfolio/cli/pkg/client"
	"github.com/pixelfolio/cli/pkg/config"
	"github.com/pixelfolio/cli/pkg/credentials"
	"github.com/pixelfolio/cli/pkg/formatter"
	"github.com/pixelfolio/cli/pkg/logger"
	"github.com/pixelfolio/cli/pkg/output"
	"github.com/pixelfolio/cli/pkg/service"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	outputFmt  string
)

var rootCmd = &cobra.Command{
	Use:   "pixelfolio",
	Short: "Pixelfolio CLI - browse and publish design portfolios",
	Long: `Pixelfolio CLI is a command-line interface for the Pixelfolio
portfolio gallery. Browse and like portfolios, publish your own work,
and manage your account directly from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
			os.Exit(1)
		}

		logger.Init(verbose)

		if !output.ValidateOutputFormat(outputFmt) {
			return fmt.Errorf("invalid output format %q (want text, json or table)", outputFmt)
		}
		config.Set("output.format", outputFmt)

		// The session is read once per invocation and injected from here on
		sess, err := credentials.FromDisk()
		if err != nil {
			logger.Warn("Ignoring unreadable credentials", "error", err)
			sess = credentials.Anonymous()
		}
		client.SetSession(sess)
		return nil
	},
}

// Execute runs the command tree until it finishes or the process is interrupted
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if !service.IsShown(err) {
			formatter.PrintCLIError(err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/pixelfolio/cli/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format: text, json, table")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(galleryCmd)
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(versionCmd)
}
