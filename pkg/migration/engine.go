package migration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshsmithxrm/ppds-engine/pkg/executor"
	"github.com/joshsmithxrm/ppds-engine/pkg/log"
	"github.com/joshsmithxrm/ppds-engine/pkg/metrics"
	"github.com/joshsmithxrm/ppds-engine/pkg/planner"
	"github.com/joshsmithxrm/ppds-engine/pkg/pool"
	"github.com/joshsmithxrm/ppds-engine/pkg/throttle"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Engine is the Migration Engine (§4.7): constructed once per run and
// reused across Export/Import calls sharing the same pool and throttle
// tracker, the same "threaded explicitly, never a package-level
// singleton" convention pkg/executor and pkg/pool follow (§9).
type Engine struct {
	pool    *pool.Pool
	tracker *throttle.Tracker
	exec    *executor.Executor
	planner *planner.Planner
	reader  Reader
	logger  zerolog.Logger
}

// NewEngine constructs an Engine. reader supplies Export's paged-query
// capability; it may be nil for Import-only use.
func NewEngine(p *pool.Pool, tracker *throttle.Tracker, reader Reader) *Engine {
	return &Engine{
		pool:    p,
		tracker: tracker,
		exec:    executor.New(p, tracker),
		planner: planner.New(),
		reader:  reader,
		logger:  log.WithComponent("migration"),
	}
}

// Export reads every entity in schema, in planner tier order (stable,
// dependency-respecting iteration — §4.6), followed by every many-to-many
// relationship's associations, into one MigrationData.
func (e *Engine) Export(ctx context.Context, schema types.Schema, filter map[string]string, progress chan<- types.ProgressEvent, pageSize int) (*types.MigrationData, error) {
	if e.reader == nil {
		return nil, types.NewConfigurationError("Export requires a Reader", nil)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ExportDuration)

	plan, err := e.planner.Plan(schema)
	if err != nil {
		return nil, err
	}

	data := types.NewMigrationData(schema)

	for _, tier := range plan.Tiers {
		for _, entityName := range tier.Entities {
			records, err := e.exportEntity(ctx, entityName, filter[entityName], pageSize, tier.Index, progress)
			if err != nil {
				return nil, fmt.Errorf("export %s: %w", entityName, err)
			}
			data.EntityRecords[entityName] = records
		}
	}

	for _, es := range schema.Entities {
		for _, rel := range es.Relationships {
			if !rel.IsManyToMany {
				continue
			}
			assocs, err := e.exportAssociations(ctx, es, rel, data.EntityRecords[es.LogicalName])
			if err != nil {
				return nil, fmt.Errorf("export associations %s: %w", rel.Name, err)
			}
			data.Associations[es.LogicalName] = append(data.Associations[es.LogicalName], assocs...)
		}
	}

	e.logger.Info().Int("entities", len(schema.Entities)).Msg("export complete")
	return data, nil
}

func (e *Engine) exportEntity(ctx context.Context, entityName, filter string, pageSize, tierIndex int, progress chan<- types.ProgressEvent) ([]*types.Record, error) {
	var records []*types.Record
	token := ""
	for {
		page, err := e.reader.QueryPage(ctx, entityName, filter, pageSize, token)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if progress != nil {
			emitNonBlocking(progress, types.ProgressEvent{
				Phase:        types.PhaseExporting,
				Entity:       entityName,
				TierIndex:    tierIndex,
				Current:      int64(len(records)),
				SuccessCount: int64(len(records)),
			})
		}
		if !page.HasMore {
			break
		}
		token = page.NextPageToken
	}
	return records, nil
}

func (e *Engine) exportAssociations(ctx context.Context, es types.EntitySchema, rel types.Relationship, records []*types.Record) ([]types.ManyToManyAssociation, error) {
	if len(records) == 0 {
		return nil, nil
	}
	sourceIDs := make([]uuid.UUID, 0, len(records))
	for _, r := range records {
		sourceIDs = append(sourceIDs, r.ID)
	}
	return e.reader.QueryAssociations(ctx, rel.Name, sourceIDs)
}

// emitNonBlocking sends ev on progress without blocking the caller if the
// consumer has fallen behind; the aggregator on the other end already
// debounces, so a dropped intermediate snapshot under backpressure is
// acceptable. Every event goes through here, including the last one of a
// phase, so that one is dropped too if the consumer is not ready for it.
func emitNonBlocking(progress chan<- types.ProgressEvent, ev types.ProgressEvent) {
	select {
	case progress <- ev:
	default:
	}
}

// Import writes data's records and associations to the target,
// tier-sequenced with a strict happens-before boundary between tiers
// (§5): tier k+1 never starts until every entity in tier k has finished.
// Within a tier, up to opts.TierConcurrency entities run concurrently.
func (e *Engine) Import(ctx context.Context, data *types.MigrationData, opts ImportOptions, progress chan<- types.ProgressEvent) (*types.MigrationResult, error) {
	opts = opts.normalize()
	start := time.Now()
	defer func() { metrics.ImportDuration.Observe(time.Since(start).Seconds()) }()

	plan, err := e.planner.Plan(data.Schema)
	if err != nil {
		return nil, err
	}

	result := &types.MigrationResult{}
	var mu sync.Mutex
	merge := func(r types.ExecutionResult) {
		mu.Lock()
		defer mu.Unlock()
		result.SuccessCount += r.SuccessCount
		result.FailureCount += r.FailureCount
		result.CreatedCount += r.CreatedCount
		result.UpdatedCount += r.UpdatedCount
		result.SkippedCount += r.SkippedCount
		result.Errors = append(result.Errors, r.Errors...)
	}

	deferred := newDeferredFieldSet(plan.DeferredFields)

	for _, tier := range plan.Tiers {
		if err := e.importTier(ctx, data, tier, deferred, opts, progress, merge); err != nil {
			if !opts.ContinueOnError || types.IsCancelled(err) {
				result.Duration = time.Since(start)
				return result, err
			}
		}
	}

	if err := e.importDeferredFields(ctx, data, plan.DeferredFields, opts, progress, merge); err != nil {
		if !opts.ContinueOnError || types.IsCancelled(err) {
			result.Duration = time.Since(start)
			return result, err
		}
	}

	if err := e.importAssociations(ctx, data, opts, progress, merge); err != nil {
		if !opts.ContinueOnError || types.IsCancelled(err) {
			result.Duration = time.Since(start)
			return result, err
		}
	}

	result.Duration = time.Since(start)
	result.TotalRecords = result.SuccessCount + result.FailureCount
	result.Success = result.FailureCount == 0
	e.logger.Info().
		Int64("success", result.SuccessCount).
		Int64("failure", result.FailureCount).
		Dur("duration", result.Duration).
		Msg("import complete")
	return result, nil
}

func (e *Engine) importTier(ctx context.Context, data *types.MigrationData, tier types.Tier, deferred deferredFieldSet, opts ImportOptions, progress chan<- types.ProgressEvent, merge func(types.ExecutionResult)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.TierConcurrency)

	for _, entityName := range tier.Entities {
		entityName := entityName
		es, ok := data.Schema.Get(entityName)
		if !ok {
			continue
		}
		records := data.EntityRecords[entityName]
		if len(records) == 0 {
			continue
		}

		g.Go(func() error {
			stream := e.buildRecordStream(*es, records, deferred, opts)
			res, err := e.runOrPlan(gctx, stream, opts.policyFor(es), opts.DryRun, progress)
			merge(res)
			return err
		})
	}

	return g.Wait()
}

// runOrPlan submits stream through the executor, unless dryRun is set, in
// which case it drains stream without issuing any remote calls and
// accounts every operation as skipped (§6.4's --dry-run contract: "validate
// and plan without submitting any writes").
func (e *Engine) runOrPlan(ctx context.Context, stream <-chan types.Operation, policy executor.Policy, dryRun bool, progress chan<- types.ProgressEvent) (types.ExecutionResult, error) {
	if dryRun {
		return planOnly(stream), nil
	}
	return e.exec.Execute(ctx, stream, policy, progress)
}

// planOnly consumes stream to completion without performing any remote
// work, so a dry run still reports how many records would have been
// written.
func planOnly(stream <-chan types.Operation) types.ExecutionResult {
	var res types.ExecutionResult
	for range stream {
		res.SkippedCount++
	}
	return res
}

// policyForEntity looks up entity's schema in data and derives its policy,
// falling back to a schema-blind policy if the entity isn't described.
func (e *Engine) policyForEntity(data *types.MigrationData, entity string, opts ImportOptions) executor.Policy {
	es, _ := data.Schema.Get(entity)
	return opts.policyFor(es)
}

// buildRecordStream translates records into the executor's Operation
// stream for the configured Mode, applying owner-field remapping and
// excluding any field named in deferred (written in the second pass
// instead).
func (e *Engine) buildRecordStream(es types.EntitySchema, records []*types.Record, deferred deferredFieldSet, opts ImportOptions) <-chan types.Operation {
	ch := make(chan types.Operation, 2*opts.BatchSize)
	go func() {
		defer close(ch)
		for _, rec := range records {
			r := rec.Clone()
			for _, f := range deferred.fieldsFor(es.LogicalName) {
				r.Remove(f)
			}
			applyOwnerMapping(r, opts.UserMapping, opts.StripOwnerFields)

			op := types.Operation{
				Entity: es.LogicalName,
				RowRef: types.RowRef(r.ID.String()),
				Record: r,
			}
			switch opts.Mode {
			case ModeUpdate:
				op.Kind = types.OpUpdate
			case ModeUpsert:
				op.Kind = types.OpUpsert
				op.KeyFields = []string{es.PrimaryIDField}
			default:
				op.Kind = types.OpCreate
			}
			ch <- op
		}
	}()
	return ch
}
