// Package source implements the Connection Source: a factory producing
// authenticated clients for one (identity, environment) pair, bounded by a
// cap on concurrent outstanding clients. Grounded on pkg/client/client.go's
// per-call-timeout, capability-injected-constructor pattern — generalized
// from a single gRPC/mTLS client into an abstract ClientFactory so the
// core never depends on a specific wire protocol or credential mechanism
// (both out of scope; see SPEC_FULL.md §10).
package source
