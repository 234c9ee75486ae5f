package main

import (
	"github.com/joshsmithxrm/ppds-engine/pkg/archive"
	"github.com/joshsmithxrm/ppds-engine/pkg/executor"
	"github.com/joshsmithxrm/ppds-engine/pkg/migration"
	"github.com/joshsmithxrm/ppds-engine/pkg/progress"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a migration archive's records into a target environment",
	RunE:  runImport,
}

func init() {
	importCmd.Flags().String("environment", "", "Target environment URL (required)")
	importCmd.Flags().String("in", "export", "Input directory holding a previously exported archive")
	importCmd.Flags().String("mode", "create", "Write mode: create, update, or upsert")
	importCmd.Flags().Bool("strip-owner-fields", false, "Strip ownerid/createdby/modifiedby/... before submission")
	importCmd.Flags().Bool("dry-run", false, "Validate and plan without submitting any writes")
	importCmd.Flags().Bool("disable-plugins", false, "Disable plugins for every imported record, overriding each entity's schema default (§4.7)")
	importCmd.Flags().String("bypass-plugins", "", "Wire-level bypass hint: none, sync, async, or all; overrides --disable-plugins and the schema default when set")
	importCmd.Flags().Int("batch-size", 0, "Batch size (0 uses the config default)")
	importCmd.Flags().Int("tier-concurrency", 0, "Entities per tier run concurrently (0 uses the config default)")
	_ = importCmd.MarkFlagRequired("environment")
}

func runImport(cmd *cobra.Command, args []string) error {
	environment, _ := cmd.Flags().GetString("environment")
	inDir, _ := cmd.Flags().GetString("in")
	modeFlag, _ := cmd.Flags().GetString("mode")
	stripOwnerFields, _ := cmd.Flags().GetBool("strip-owner-fields")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	bypassPlugins, _ := cmd.Flags().GetString("bypass-plugins")
	var disablePlugins *bool
	if cmd.Flags().Changed("disable-plugins") {
		v, _ := cmd.Flags().GetBool("disable-plugins")
		disablePlugins = &v
	}
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	tierConcurrency, _ := cmd.Flags().GetInt("tier-concurrency")

	cfg, err := loadConfig(mustString(cmd, "config"))
	if err != nil {
		return newExitError(exitInvalidArgs, err)
	}

	mode, err := parseMode(modeFlag)
	if err != nil {
		return newExitError(exitInvalidArgs, err)
	}

	reader := archive.NewReader(archive.NewDirFileSystem(inDir))
	data, err := reader.Read()
	if err != nil {
		return newExitError(exitNotFound, err)
	}

	_, _, engine := buildEngine(cfg, environment)

	opts := migration.ImportOptions{
		Mode:             mode,
		StripOwnerFields: stripOwnerFields,
		DryRun:           dryRun,
		ContinueOnError:  cfg.Batch.ContinueOnError,
		DisablePlugins:   disablePlugins,
		BypassPlugins:    executor.BypassMode(bypassPlugins),
		BypassFlows:      cfg.Batch.BypassFlows,
		BatchSize:        batchSize,
		TierConcurrency:  tierConcurrency,
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = cfg.Batch.Size
	}
	if opts.TierConcurrency <= 0 {
		opts.TierConcurrency = cfg.Migration.TierConcurrency
	}

	reporter := progress.NewReporter(progress.Format(cfg.Progress.Format), cmd.OutOrStdout(), progressOptions(cfg))
	events := make(chan types.ProgressEvent, 64)
	done := make(chan struct{})
	go func() {
		reporter.Run(events)
		close(done)
	}()

	result, err := engine.Import(cmd.Context(), data, opts, events)
	close(events)
	<-done
	if err != nil {
		return newExitError(exitGeneralFailure, err)
	}

	cmd.Printf("import complete: %d succeeded, %d failed\n", result.SuccessCount, result.FailureCount)
	if !result.Success && result.FailureCount > 0 && result.SuccessCount > 0 {
		return newExitError(exitPartialSuccess, errf("partial success: some records failed"))
	}
	if !result.Success {
		return newExitError(exitGeneralFailure, errf("import failed"))
	}
	return nil
}

func parseMode(s string) (migration.Mode, error) {
	switch s {
	case "create":
		return migration.ModeCreate, nil
	case "update":
		return migration.ModeUpdate, nil
	case "upsert":
		return migration.ModeUpsert, nil
	default:
		return migration.ModeCreate, errf("unknown --mode " + s + " (want create, update, or upsert)")
	}
}
