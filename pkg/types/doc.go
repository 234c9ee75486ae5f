// Package types holds the data model shared by every layer of the
// migration engine: records, schema, operations, errors, and progress
// events. Nothing in this package talks to the network or the filesystem.
package types
