package planner

import (
	"sort"

	"github.com/joshsmithxrm/ppds-engine/pkg/log"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/rs/zerolog"
)

// Planner turns a Schema's lookup-field dependencies into a TierPlan
// (§4.6): a dependency graph, its strongly connected components (defer
// clusters), and a topological order over the condensation.
type Planner struct {
	logger zerolog.Logger
}

// New constructs a Planner.
func New() *Planner {
	return &Planner{logger: log.WithComponent("planner")}
}

// Plan builds a TierPlan for schema. Algorithm (§4.6):
//  1. Build a dependency graph: edge A -> B if entity A has a lookup
//     field whose target is B.
//  2. Compute strongly connected components. Each non-trivial SCC (a
//     self-loop or a multi-entity cycle) becomes a defer cluster: every
//     lookup field that closes the cycle is deferred rather than
//     resolved inline.
//  3. Topologically order the condensation graph; each SCC is a tier.
//  4. Record each deferred (entity, field) for the later
//     ProcessingDeferredFields pass.
//
// Within a tier, entities are ordered as they appear in schema.Entities.
func (p *Planner) Plan(schema types.Schema) (types.TierPlan, error) {
	entityIndex := make(map[string]int, len(schema.Entities))
	nodes := make([]string, 0, len(schema.Entities))
	for i, e := range schema.Entities {
		entityIndex[e.LogicalName] = i
		nodes = append(nodes, e.LogicalName)
	}

	adj := make(map[string][]string, len(nodes))
	for _, e := range schema.Entities {
		for _, f := range e.Fields {
			if f.Type != types.FieldTypeLookup {
				continue
			}
			for _, target := range f.LookupTargets {
				if _, ok := entityIndex[target]; !ok {
					// Reference points outside this schema's entity set;
					// nothing to order it against.
					continue
				}
				adj[e.LogicalName] = append(adj[e.LogicalName], target)
			}
		}
	}

	sccs := tarjanSCC(nodes, adj)

	compOf := make(map[string]int, len(nodes))
	for ci, comp := range sccs {
		for _, name := range comp {
			compOf[name] = ci
		}
	}

	compDeps := make([]map[int]bool, len(sccs))
	for i := range compDeps {
		compDeps[i] = map[int]bool{}
	}

	var deferred []types.DeferredFieldSpec
	for _, e := range schema.Entities {
		ci := compOf[e.LogicalName]
		selfLoop := hasSelfLoop(adj, e.LogicalName)
		for _, f := range e.Fields {
			if f.Type != types.FieldTypeLookup {
				continue
			}
			for _, target := range f.LookupTargets {
				cj, ok := compOf[target]
				if !ok {
					continue
				}
				if cj == ci && (len(sccs[ci]) > 1 || selfLoop) {
					deferred = append(deferred, types.DeferredFieldSpec{
						Entity:    e.LogicalName,
						FieldName: f.Name,
					})
					continue
				}
				if cj != ci {
					compDeps[ci][cj] = true
				}
			}
		}
	}
	deferred = dedupeDeferred(deferred)

	order := topoSortComponents(sccs, compDeps, entityIndex)

	tiers := make([]types.Tier, 0, len(order))
	entityTier := make(map[string]int, len(nodes))
	for tierIdx, ci := range order {
		comp := append([]string(nil), sccs[ci]...)
		sort.Slice(comp, func(i, j int) bool {
			return entityIndex[comp[i]] < entityIndex[comp[j]]
		})
		tiers = append(tiers, types.Tier{Index: tierIdx, Entities: comp})
		for _, name := range comp {
			entityTier[name] = tierIdx
		}
	}

	p.logger.Debug().Int("tiers", len(tiers)).Int("deferred_fields", len(deferred)).Msg("plan computed")

	return types.TierPlan{
		Tiers:          tiers,
		DeferredFields: deferred,
		EntityTier:     entityTier,
	}, nil
}

func dedupeDeferred(in []types.DeferredFieldSpec) []types.DeferredFieldSpec {
	seen := map[types.DeferredFieldSpec]bool{}
	out := make([]types.DeferredFieldSpec, 0, len(in))
	for _, d := range in {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
