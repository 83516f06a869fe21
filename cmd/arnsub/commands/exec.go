package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/arnsub/internal/config"
	aserrors "github.com/systmms/arnsub/internal/errors"
	"github.com/systmms/arnsub/internal/execenv"
	"github.com/systmms/arnsub/internal/secure"
)

func NewExecCommand(cfg *config.Config) *cobra.Command {
	var (
		printVars        bool
		preserveExisting bool
		workingDir       string
		timeout          int
	)

	cmd := &cobra.Command{
		Use:   "exec -- <command> [args...]",
		Short: "Resolve ARNs and execute a command with the substituted environment",
		Long: `Exec resolves every ARN embedded in prefix-matching environment variables
and launches the command with the substituted values. Secrets are injected
into the child process environment and never written to disk.

The command must be separated from arnsub arguments with '--'.

Examples:
  arnsub exec -- npm start
  arnsub exec --print -- python app.py`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return aserrors.UserError{
					Message:    "No command specified",
					Suggestion: "Use: arnsub exec -- <command> [args...]",
				}
			}

			if err := cfg.Load(); err != nil {
				return aserrors.UserError{
					Message:    "Failed to load configuration",
					Details:    err.Error(),
					Suggestion: "Check that arnsub.yaml is valid YAML",
					Err:        err,
				}
			}

			env := snapshotEnv()
			binder := newBinder(cfg)

			arns := binder.Extract(env)
			if len(arns) == 0 {
				cfg.Logger.Debug("No ARNs found in the environment, executing directly")
				executor := execenv.New(cfg.Logger)
				return executor.Exec(context.Background(), execenv.Options{
					Command:    args,
					PrintVars:  printVars,
					WorkingDir: workingDir,
					Timeout:    timeout,
				})
			}

			cfg.Logger.Debug("Found %d ARNs to resolve", len(arns))

			resolver, err := buildResolver(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.Definition.GetTimeoutMs())*time.Millisecond)
			defer cancel()

			resolved, err := resolver.Resolve(ctx, arns)
			if err != nil {
				return aserrors.ResolutionError(err)
			}

			// Keep plaintext encrypted between resolution and handoff.
			vault := secure.NewVault()
			defer vault.DestroyAll()
			for key, value := range resolved {
				vault.Put(key, []byte(value))
				resolved[key] = ""
			}

			plaintext := make(map[string]string, len(arns))
			for _, key := range arns {
				value, ok, err := vault.Reveal(key)
				if err != nil {
					return aserrors.UserError{
						Message:    "Failed to access secured secret value",
						Details:    err.Error(),
						Suggestion: "Try running with --debug for more information",
						Err:        err,
					}
				}
				if ok {
					plaintext[key] = value
				}
			}

			updates := binder.Apply(env, plaintext)
			cfg.Logger.Info("Resolved %d ARNs into %d environment variables", len(arns), len(updates))

			executor := execenv.New(cfg.Logger)
			return executor.Exec(context.Background(), execenv.Options{
				Command:          args,
				Environment:      updates,
				PreserveExisting: preserveExisting,
				PrintVars:        printVars,
				WorkingDir:       workingDir,
				Timeout:          timeout,
			})
		},
	}

	cmd.Flags().BoolVar(&printVars, "print", false, "Print substituted variables (values masked)")
	cmd.Flags().BoolVar(&preserveExisting, "preserve-existing", false, "Keep pre-existing variable values instead of overwriting")
	cmd.Flags().StringVar(&workingDir, "working-dir", "", "Working directory for the command")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "Command timeout in seconds (0 for no timeout)")

	return cmd
}
