package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/systmms/arnsub/cmd/arnsub/commands"
	"github.com/systmms/arnsub/internal/config"
	aserrors "github.com/systmms/arnsub/internal/errors"
	"github.com/systmms/arnsub/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	defer memguard.Purge()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		// Pass the child's exit code through to our caller.
		exitCode := 1
		var cerr aserrors.CommandError
		if errors.As(err, &cerr) && cerr.ExitCode != 0 {
			exitCode = cerr.ExitCode
		}
		memguard.Purge()
		os.Exit(exitCode)
	}
}

func run() error {
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "arnsub",
		Short: "Resolve AWS secret ARNs into environment variables",
		Long: `arnsub scans environment variables for embedded AWS Secrets Manager and
Parameter Store ARNs, resolves them, and launches your command with the
plaintext values substituted in. Secrets never touch disk.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default arnsub.yaml if present)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewPlanCommand(cfg),
		commands.NewExecCommand(cfg),
	)

	return rootCmd.Execute()
}
