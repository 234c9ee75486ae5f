// Package pool implements the Connection Pool: multiplexes N Sources,
// hands out leased clients, negotiates effective DOP against the Throttle
// Tracker, and applies affinity-cookie and fairness policy. Grounded on
// pkg/manager/manager.go's role as the top-level owner of long-lived
// subsystems, pkg/scheduler/scheduler.go's round-robin node selection
// (selectNode) generalized from "node with fewest containers" to "source
// with spare capacity," and pkg/manager/token.go's opaque TTL-bounded
// token (JoinToken), generalized into AffinityCookie.
package pool
