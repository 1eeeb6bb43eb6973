// Package cli implements the cobra-based CLI commands for devserve.
//
// The root command runs the full startup sequence (reclaim the port,
// reconcile the hosts file, flush the resolver cache, serve, open the
// browser) and needs no arguments. The read-only status subcommand is
// defined in status.go.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devserve/internal/app"
	"github.com/shinji-kodama/devserve/internal/logger"
	"github.com/shinji-kodama/devserve/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether status and error output is formatted as
	// JSON for machine consumption.
	jsonOutput bool

	// verbose enables debug logging on stderr, including every state
	// transition of the startup sequence and one access log line per
	// request.
	verbose bool
)

// Version, Commit and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&configFlags{})
}

// newRootCommand builds the command tree bound to flags.
func newRootCommand(flags *configFlags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "devserve",
		Short: "Serve the current directory on a custom local domain",
		Long: `devserve frees a port, points a custom local domain at this machine,
serves the current directory with caching disabled and opens a browser.

Startup sequence:
  1. Stop containers and kill processes listening on the port
  2. Add 127.0.0.1 and ::1 entries for the domain to /etc/hosts (uses sudo)
  3. Flush the DNS cache if the hosts file changed
  4. Serve files and open the browser

If the hosts file cannot be updated the server still starts on localhost.

Configuration is read from devserve.yaml, devserve.yml, devserve.jsonc,
devserve.json or devserve.toml in the working directory, or from --config.
Flags override the file.

Examples:
  devserve
  devserve --port 3000 --domain myapp.local
  devserve --browser chrome --private
  devserve --no-browser --qr`,

		Args: cobra.NoArgs,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		// Version is displayed when --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (status and errors)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	flags.register(rootCmd)

	rootCmd.AddCommand(NewStatusCommand(flags))

	return rootCmd
}

// runServe loads the configuration and runs the startup sequence until
// SIGINT or SIGTERM.
func runServe(cmd *cobra.Command, flags *configFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	if info, err := os.Stat(cfg.ServeDir); err != nil || !info.IsDir() {
		return model.NewCLIError(model.ExitInvalidConfig,
			fmt.Sprintf("serve directory %q does not exist or is not a directory", cfg.ServeDir))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewStderr(verbose)
	return app.Run(ctx, cfg, app.NewDeps(cfg, log))
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// It inspects errors returned by cobra commands and translates them
// into appropriate OS exit codes. CLIError types carry their own
// exit codes; other errors default to exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		// Check if the error is a CLIError with a specific exit code.
		// errors.As would also work here, but a type assertion is simpler
		// for this single-level check.
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		// Generic error (including cobra flag parse errors): exit with code 1.
		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode; stdout is reserved for
		// successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}
