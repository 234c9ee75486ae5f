/*
Package metrics provides Prometheus metrics collection and exposition for
the migration engine.

Metrics fall into two groups: counters/histograms incremented inline by
pkg/executor, pkg/migration, and pkg/csvload as operations happen, and
gauges polled on a ticker by Collector from a Pool's live DOP/in-flight
state (EffectiveDop, SourcesInFlight), since that state is continuous
rather than event-shaped.

Handler exposes the Prometheus text-exposition format at /metrics;
HealthHandler/ReadyHandler/LivenessHandler expose JSON health/readiness/
liveness endpoints backed by a package-level HealthChecker that callers
update via RegisterComponent/UpdateComponent as the engine's source and
pool come up.
*/
package metrics
