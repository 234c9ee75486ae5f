package main

import (
	"os"
	"strings"

	"github.com/joshsmithxrm/ppds-engine/pkg/archive"
	"github.com/joshsmithxrm/ppds-engine/pkg/config"
	"github.com/joshsmithxrm/ppds-engine/pkg/progress"
	"github.com/joshsmithxrm/ppds-engine/pkg/schema"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export records matching a schema into a migration archive",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().String("environment", "", "Source environment URL (required)")
	exportCmd.Flags().String("schema", "schema.xml", "Schema document describing what to export")
	exportCmd.Flags().String("out", "export", "Output directory to assemble the archive into")
	exportCmd.Flags().StringToString("filter", nil, "Per-entity query filter (entityLogicalName=filter)")
	exportCmd.Flags().Int("page-size", 0, "Paged-query page size (0 uses the config/engine default)")
	_ = exportCmd.MarkFlagRequired("environment")
}

func runExport(cmd *cobra.Command, args []string) error {
	environment, _ := cmd.Flags().GetString("environment")
	schemaPath, _ := cmd.Flags().GetString("schema")
	outDir, _ := cmd.Flags().GetString("out")
	filter, _ := cmd.Flags().GetStringToString("filter")
	pageSize, _ := cmd.Flags().GetInt("page-size")

	cfg, err := loadConfig(mustString(cmd, "config"))
	if err != nil {
		return newExitError(exitInvalidArgs, err)
	}
	if pageSize <= 0 {
		pageSize = cfg.Migration.PageSize
	}

	sf, err := os.Open(schemaPath)
	if err != nil {
		return newExitError(exitNotFound, err)
	}
	s, err := schema.ReadSchema(sf)
	sf.Close()
	if err != nil {
		return newExitError(exitGeneralFailure, err)
	}

	_, _, engine := buildEngine(cfg, environment)

	reporter := progress.NewReporter(progress.Format(cfg.Progress.Format), cmd.OutOrStdout(), progressOptions(cfg))
	events := make(chan types.ProgressEvent, 64)
	done := make(chan struct{})
	go func() {
		reporter.Run(events)
		close(done)
	}()

	data, err := engine.Export(cmd.Context(), s, filter, events, pageSize)
	close(events)
	<-done
	if err != nil {
		return newExitError(exitGeneralFailure, err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return newExitError(exitGeneralFailure, err)
	}
	writer := archive.NewWriter(archive.NewDirFileSystem(outDir))
	if err := writer.Write(data); err != nil {
		return newExitError(exitGeneralFailure, err)
	}

	cmd.Printf("exported %d entities to %s\n", len(data.Schema.Entities), outDir)
	return nil
}

// mustString reads a persistent string flag from the root command, since
// RunE only has access to the invoked subcommand's own FlagSet directly.
func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Root().PersistentFlags().GetString(name)
	return strings.TrimSpace(v)
}

// progressOptions layers §6.5's NO_COLOR env var on top of the config
// file's progress settings.
func progressOptions(cfg config.Config) progress.Options {
	opts := cfg.ProgressOptions()
	if noColor() {
		opts.NoColor = true
	}
	return opts
}
