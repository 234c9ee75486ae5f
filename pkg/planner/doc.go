// Package planner implements the Migration Planner: it builds a
// dependency graph over a Schema's lookup fields, finds strongly
// connected components (defer clusters), and topologically orders the
// condensation into tiers. No example repo in the corpus implements a
// graph solver, so Tarjan's algorithm and the topological sort are
// implemented directly against the standard library — see DESIGN.md's
// standard-library justifications. The tiering concept itself is
// grounded on pkg/scheduler/scheduler.go's notion of ordering work
// against a desired-state graph, generalized from "nodes vs. services"
// to "dependency tiers over entities."
package planner
