// Package execenv launches the workload with resolved secrets injected as
// ephemeral environment variables. The variables live only in the child
// process environment and are never written to disk.
package execenv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	aserrors "github.com/systmms/arnsub/internal/errors"
	"github.com/systmms/arnsub/internal/logging"
)

// Executor runs commands with resolved environment variables applied.
type Executor struct {
	logger *logging.Logger
}

// New creates a new executor.
func New(logger *logging.Logger) *Executor {
	return &Executor{logger: logger}
}

// Options configures command execution.
type Options struct {
	Command          []string          // Command and arguments to run
	Environment      map[string]string // Resolved variables to apply
	PreserveExisting bool              // Keep pre-existing values instead of overwriting
	PrintVars        bool              // Print applied variables with values masked
	WorkingDir       string            // Working directory for the command
	Timeout          int               // Timeout in seconds (0 for no timeout)
}

// Exec runs the command with the resolved environment. A non-zero exit from
// the child comes back as a CommandError carrying the exit code so the
// caller can pass it through.
func (e *Executor) Exec(ctx context.Context, options Options) error {
	if len(options.Command) == 0 {
		return aserrors.UserError{
			Message:    "No command specified",
			Suggestion: "Provide a command after -- (e.g., arnsub exec -- npm start)",
		}
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(options.Timeout)*time.Second)
		defer cancel()
	}

	cmdName := options.Command[0]
	if _, err := exec.LookPath(cmdName); err != nil {
		return aserrors.WrapCommandNotFound(cmdName, err)
	}

	if options.PrintVars {
		e.printEnvironment(options.Environment)
	}

	cmd := exec.CommandContext(ctx, cmdName, options.Command[1:]...)
	cmd.Env = e.buildEnvironment(options.Environment, options.PreserveExisting)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}

	e.logger.Debug("Executing command: %s", strings.Join(options.Command, " "))
	e.logger.Debug("Environment variables applied: %d", len(options.Environment))

	if err := cmd.Run(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return aserrors.CommandError{
				Command:  strings.Join(options.Command, " "),
				ExitCode: exitError.ExitCode(),
				Message:  "child process exited with an error",
			}
		}
		return aserrors.CommandError{
			Command:    strings.Join(options.Command, " "),
			Message:    err.Error(),
			Suggestion: "Check the command output above for details",
		}
	}

	return nil
}

// buildEnvironment merges the resolved variables over the current process
// environment and returns a sorted KEY=VALUE slice.
func (e *Executor) buildEnvironment(vars map[string]string, preserveExisting bool) []string {
	envMap := make(map[string]string)
	for _, entry := range os.Environ() {
		if key, value, ok := strings.Cut(entry, "="); ok {
			envMap[key] = value
		}
	}

	for key, value := range vars {
		if preserveExisting {
			if _, exists := envMap[key]; exists {
				continue
			}
		}
		envMap[key] = value
	}

	result := make([]string, 0, len(envMap))
	for key, value := range envMap {
		result = append(result, fmt.Sprintf("%s=%s", key, value))
	}
	sort.Strings(result)
	return result
}

// printEnvironment displays the applied variables with values masked.
func (e *Executor) printEnvironment(environment map[string]string) {
	if len(environment) == 0 {
		fmt.Println("No environment variables resolved")
		return
	}

	fmt.Printf("Resolved %d environment variables:\n", len(environment))

	keys := make([]string, 0, len(environment))
	for key := range environment {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Printf("  %s=%s\n", key, maskValue(environment[key]))
	}
	fmt.Println()
}

// maskValue masks a secret value for display.
func maskValue(value string) string {
	if len(value) == 0 {
		return "(empty)"
	}
	if len(value) <= 3 {
		return strings.Repeat("*", len(value))
	}
	if len(value) <= 8 {
		return value[:1] + strings.Repeat("*", len(value)-2) + value[len(value)-1:]
	}
	return value[:3] + strings.Repeat("*", 8) + value[len(value)-2:]
}
