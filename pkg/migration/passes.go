package migration

import (
	"context"

	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"golang.org/x/sync/errgroup"
)

// deferredFieldSet indexes a TierPlan's DeferredFields by entity for
// O(1) membership checks while building a tier's record stream.
type deferredFieldSet map[string][]string

func newDeferredFieldSet(specs []types.DeferredFieldSpec) deferredFieldSet {
	set := make(deferredFieldSet)
	for _, s := range specs {
		set[s.Entity] = append(set[s.Entity], s.FieldName)
	}
	return set
}

func (d deferredFieldSet) fieldsFor(entity string) []string {
	return d[entity]
}

// importDeferredFields is the second pass (§4.6/§4.7): for every
// DeferredFieldSpec, update each already-created record that carries a
// non-empty value for that field. It runs once, after every tier has
// completed, reusing pkg/reconciler's continue-past-per-item-error idiom
// generalized from a ticking sweep to a single bounded pass. Specs are
// grouped by entity and run one Execute call per entity (up to
// opts.TierConcurrency concurrently) so each entity's batches pick up its
// own EntitySchema.DisablePluginsDefault rather than one schema-blind
// policy shared across every entity in the pass.
func (e *Engine) importDeferredFields(ctx context.Context, data *types.MigrationData, specs []types.DeferredFieldSpec, opts ImportOptions, progress chan<- types.ProgressEvent, merge func(types.ExecutionResult)) error {
	if len(specs) == 0 {
		return nil
	}

	byEntity := make(map[string][]types.DeferredFieldSpec)
	var order []string
	for _, s := range specs {
		if _, ok := byEntity[s.Entity]; !ok {
			order = append(order, s.Entity)
		}
		byEntity[s.Entity] = append(byEntity[s.Entity], s)
	}

	relabeled, closeRelabeled := withPhase(progress, types.PhaseProcessingDeferredFields)
	defer closeRelabeled()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.TierConcurrency)

	for _, entity := range order {
		entity := entity
		entitySpecs := byEntity[entity]
		g.Go(func() error {
			ch := make(chan types.Operation, 2*opts.BatchSize)
			go func() {
				defer close(ch)
				for _, spec := range entitySpecs {
					for _, rec := range data.EntityRecords[spec.Entity] {
						val, ok := rec.Get(spec.FieldName)
						if !ok {
							continue
						}
						if ref, isRef := val.AsEntityReference(); isRef && ref.RefID.String() == "00000000-0000-0000-0000-000000000000" {
							continue
						}
						upd := types.NewRecord(spec.Entity, rec.ID)
						upd.Set(spec.FieldName, val)
						ch <- types.Operation{
							Kind:   types.OpUpdate,
							Entity: spec.Entity,
							RowRef: types.RowRef(rec.ID.String()),
							Record: upd,
						}
					}
				}
			}()

			policy := e.policyForEntity(data, entity, opts)
			res, err := e.runOrPlan(gctx, ch, policy, opts.DryRun, relabeled)
			merge(res)
			return err
		})
	}

	return g.Wait()
}

// importAssociations is the third pass (§4.6/§4.7): every
// ManyToManyAssociation becomes one Associate Operation per target id.
// Associations are already grouped by source entity in data.Associations,
// so each source entity gets its own Execute call (up to
// opts.TierConcurrency concurrently), picking up that entity's own
// schema-derived bypass-plugins default.
func (e *Engine) importAssociations(ctx context.Context, data *types.MigrationData, opts ImportOptions, progress chan<- types.ProgressEvent, merge func(types.ExecutionResult)) error {
	hasAny := false
	for _, assocs := range data.Associations {
		if len(assocs) > 0 {
			hasAny = true
			break
		}
	}
	if !hasAny {
		return nil
	}

	relabeled, closeRelabeled := withPhase(progress, types.PhaseProcessingRelationships)
	defer closeRelabeled()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.TierConcurrency)

	for sourceEntity, assocs := range data.Associations {
		sourceEntity, assocs := sourceEntity, assocs
		if len(assocs) == 0 {
			continue
		}
		g.Go(func() error {
			ch := make(chan types.Operation, 2*opts.BatchSize)
			go func() {
				defer close(ch)
				for _, a := range assocs {
					for _, targetID := range a.TargetIDs {
						ch <- types.Operation{
							Kind:             types.OpAssociate,
							Entity:           sourceEntity,
							RowRef:           types.RowRef(a.SourceID.String() + ":" + a.RelationshipName + ":" + targetID.String()),
							RelationshipName: a.RelationshipName,
							SourceID:         a.SourceID,
							TargetEntity:     a.TargetEntity,
							TargetID:         targetID,
						}
					}
				}
			}()

			policy := e.policyForEntity(data, sourceEntity, opts)
			res, err := e.runOrPlan(gctx, ch, policy, opts.DryRun, relabeled)
			merge(res)
			return err
		})
	}

	return g.Wait()
}

// withPhase returns a channel that relabels every event's Phase before
// forwarding to progress, so one executor.Execute call used for a pass
// that spans multiple logical phases reports under the caller's phase
// name rather than whatever the executor defaults to, plus a closer the
// caller must invoke after Execute returns to let the forwarding
// goroutine drain and exit. Returns a nil channel and a no-op closer if
// progress is nil.
func withPhase(progress chan<- types.ProgressEvent, phase types.Phase) (chan<- types.ProgressEvent, func()) {
	if progress == nil {
		return nil, func() {}
	}
	relabeled := make(chan types.ProgressEvent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range relabeled {
			ev.Phase = phase
			emitNonBlocking(progress, ev)
		}
	}()
	return relabeled, func() {
		close(relabeled)
		<-done
	}
}
