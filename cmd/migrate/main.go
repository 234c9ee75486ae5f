// Command migrate is the thin cobra adapter around the migration engine
// (SPEC_FULL.md §6.4/§6.5): generate-schema, export, import, and load-csv,
// each wiring pkg/config, pkg/migration, pkg/schema, pkg/archive, and
// pkg/progress together. Credential acquisition, environment discovery,
// ZIP bit-exact framing, and FetchXML/SQL transpiling are out of scope
// (see connector.go) — this binary assumes a real source.ClientFactory,
// migration.Reader, and schema.MetadataProvider are wired in by whoever
// embeds it for a live Dataverse environment.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joshsmithxrm/ppds-engine/pkg/log"
	"github.com/spf13/cobra"
)

// Exit codes per §6.4.
const (
	exitSuccess        = 0
	exitGeneralFailure = 1
	exitInvalidArgs    = 2
	exitNotFound       = 3
	exitPartialSuccess = 4
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:     "migrate",
	Short:   "Bulk migration engine for Dataverse-shaped data",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("migrate version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (optional; defaults used when absent)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(generateSchemaCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(loadCSVCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

// noColor reports whether §6.5's NO_COLOR env var is present, regardless
// of value.
func noColor() bool {
	_, present := os.LookupEnv("NO_COLOR")
	return present
}

// debugSinkPath returns the off-by-default debug sink path (§6.5): empty
// unless MIGRATE_DEBUG_LOG names a file to append raw diagnostic output to.
func debugSinkPath() string {
	return os.Getenv("MIGRATE_DEBUG_LOG")
}

// exitError carries an explicit exit code (§6.4) alongside a message, so
// RunE can signal invalid-arguments/not-found/partial-success distinctly
// from a general failure.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func newExitError(code int, err error) error {
	return &exitError{code: code, err: err}
}

func exitCodeFor(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitGeneralFailure
}
