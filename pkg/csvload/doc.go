// Package csvload implements the CSV Load Mapping (§6.2/§4.9): reading a
// CSV-to-entity mapping document (YAML, grounded on cmd/warren/apply.go's
// WarrenResource manifest-loading pattern), decoding CSV rows with
// github.com/jszwec/csvutil instead of hand-rolled encoding/csv
// column-index bookkeeping, resolving lookup columns in one deduplicated
// batch per (lookupTargetEntity, lookupKeyField) pair, and emitting a
// stream of Create/Upsert Operations for pkg/executor.
package csvload
