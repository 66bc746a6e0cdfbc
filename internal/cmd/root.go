package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aditya-makadiya/sociofeed/pkg/config"
	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/aditya-makadiya/sociofeed/pkg/output"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	outputFmt  string
)

var rootCmd = &cobra.Command{
	Use:   "sociofeed",
	Short: "Sociofeed CLI - a terminal client for the Sociofeed social network",
	Long: `Sociofeed CLI is a command-line client for the Sociofeed social
network. Read your feed, like and save posts, comment, and follow people
directly from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}

		logger.Init(verbose)

		if !output.ValidateOutputFormat(outputFmt) {
			return errors.New(errors.KindValidation, fmt.Sprintf("unknown output format %q", outputFmt), nil).
				WithSuggestion("Use one of: text, json, table.")
		}
		config.Set("output.format", outputFmt)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Close()
	},
}

// reported marks an error the notifier already showed to the user
type reported struct {
	err error
}

func (r reported) Error() string { return r.err.Error() }
func (r reported) Unwrap() error { return r.err }

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var r reported
		if !stderrors.As(err, &r) {
			fmt.Fprint(os.Stderr, errors.FormatError(err))
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/sociofeed/config.toml)")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "output", "text", "Output format: text, json, table")

	// Add subcommands
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(savedCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(followCmd)
	rootCmd.AddCommand(unfollowCmd)
	rootCmd.AddCommand(avatarCmd)
	rootCmd.AddCommand(mockAPICmd)
	rootCmd.AddCommand(versionCmd)
}
