package main

import (
	"os"

	"github.com/joshsmithxrm/ppds-engine/pkg/csvload"
	"github.com/joshsmithxrm/ppds-engine/pkg/executor"
	"github.com/joshsmithxrm/ppds-engine/pkg/progress"
	"github.com/joshsmithxrm/ppds-engine/pkg/schema"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/spf13/cobra"
)

var loadCSVCmd = &cobra.Command{
	Use:   "load-csv",
	Short: "Load a CSV file into an entity using a column mapping document",
	Long: `Read a CSV file against a mapping document (§6.2), resolving any
lookup columns and submitting one Create/Upsert per row through the same
Bulk Operation Executor used by import.`,
	RunE: runLoadCSV,
}

func init() {
	loadCSVCmd.Flags().String("environment", "", "Target environment URL (required)")
	loadCSVCmd.Flags().String("csv", "", "CSV file to load (required)")
	loadCSVCmd.Flags().String("mapping", "", "Mapping document describing column -> field assignment (required)")
	loadCSVCmd.Flags().String("entity-schema", "", "Schema document naming the target entity's fields (required)")
	_ = loadCSVCmd.MarkFlagRequired("environment")
	_ = loadCSVCmd.MarkFlagRequired("csv")
	_ = loadCSVCmd.MarkFlagRequired("mapping")
	_ = loadCSVCmd.MarkFlagRequired("entity-schema")
}

func runLoadCSV(cmd *cobra.Command, args []string) error {
	environment, _ := cmd.Flags().GetString("environment")
	csvPath, _ := cmd.Flags().GetString("csv")
	mappingPath, _ := cmd.Flags().GetString("mapping")
	schemaPath, _ := cmd.Flags().GetString("entity-schema")

	cfg, err := loadConfig(mustString(cmd, "config"))
	if err != nil {
		return newExitError(exitInvalidArgs, err)
	}

	mf, err := os.Open(mappingPath)
	if err != nil {
		return newExitError(exitNotFound, err)
	}
	mapping, err := csvload.LoadMapping(mf)
	mf.Close()
	if err != nil {
		return newExitError(exitGeneralFailure, err)
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
	es, ok := s.Get(mapping.EntityLogicalName)
	if !ok {
		return newExitError(exitInvalidArgs, errf("schema does not describe entity "+mapping.EntityLogicalName))
	}

	cf, err := os.Open(csvPath)
	if err != nil {
		return newExitError(exitNotFound, err)
	}
	defer cf.Close()

	loader := csvload.NewLoader(*mapping, *es, lookupResolver)
	ops, recErrs, err := loader.Load(cmd.Context(), cf)
	if err != nil {
		return newExitError(exitGeneralFailure, err)
	}

	p, tracker, _ := buildEngine(cfg, environment)
	exec := executor.New(p, tracker)
	policy := cfg.ExecutorPolicy()

	reporter := progress.NewReporter(progress.Format(cfg.Progress.Format), cmd.OutOrStdout(), progressOptions(cfg))
	events := make(chan types.ProgressEvent, 64)
	done := make(chan struct{})
	go func() {
		reporter.Run(events)
		close(done)
	}()

	var loadErrs []types.RecordError
	recErrsDone := make(chan struct{})
	go func() {
		for re := range recErrs {
			loadErrs = append(loadErrs, re)
		}
		close(recErrsDone)
	}()

	result, err := exec.Execute(cmd.Context(), ops, policy, events)
	close(events)
	<-done
	<-recErrsDone
	if err != nil {
		return newExitError(exitGeneralFailure, err)
	}

	totalFailures := result.FailureCount + int64(len(loadErrs))
	cmd.Printf("load-csv complete: %d succeeded, %d failed\n", result.SuccessCount, totalFailures)
	if totalFailures > 0 && result.SuccessCount > 0 {
		return newExitError(exitPartialSuccess, errf("partial success: some rows failed"))
	}
	if totalFailures > 0 {
		return newExitError(exitGeneralFailure, errf("load-csv failed"))
	}
	return nil
}
