// Package progress implements the Progress Reporter (§4.8): the sole
// writer to the user-visible stream of migration progress, in either a
// human-readable or newline-delimited-JSON format chosen once per run.
// Grounded on pkg/events/events.go's Broker — the same
// single-goroutine consumer loop reading a channel until it closes —
// simplified here to single-producer/single-consumer and point output
// instead of fan-out to many subscribers, since the Progress channel
// has exactly one consumer (§5 "Shared resources").
package progress
