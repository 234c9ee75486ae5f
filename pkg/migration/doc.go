// Package migration implements the Migration Engine (§4.7): the
// top-level orchestrator that drives Export and Import using the
// planner and executor. Grounded on pkg/manager/manager.go's
// constructor-wires-subcomponents style and on the example pack's
// Altacee-dockation migration/engine.go (phase-tracked job with
// context-cancellation and a progress channel), adapted from a
// long-lived job store to one-shot Export/Import calls. The
// deferred-field and association passes reuse pkg/reconciler's
// bounded-sweep, continue-past-per-item-error idiom, run once per
// migration rather than on a ticker.
package migration
