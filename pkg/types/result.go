package types

import "time"

// RecordError is one per-record failure, attributed back to the caller's
// RowRef so a CSV load can point at the offending source row.
type RecordError struct {
	RowRef   RowRef
	Entity   string
	Field    string
	ErrorCode string
	Message   string
	RecordID  string
}

// Well-known ErrorCode values the reporter clusters on (see pkg/progress).
const (
	ErrorCodeMissingUser      = "MissingUser"
	ErrorCodeMissingReference = "MissingReference"
	ErrorCodeDuplicate        = "Duplicate"
	ErrorCodePermission       = "Permission"
	ErrorCodeRequiredField    = "RequiredField"
	ErrorCodeUnknown          = "Unknown"
)

// ExecutionResult is what the Bulk Operation Executor returns for one
// Execute call: per-record accounting plus the structured error list.
type ExecutionResult struct {
	SuccessCount int64
	FailureCount int64
	CreatedCount int64
	UpdatedCount int64
	SkippedCount int64
	Errors       []RecordError
}

// MigrationResult is the top-level summary returned by the Migration
// Engine for one Export or Import call.
type MigrationResult struct {
	Success      bool
	Duration     time.Duration
	TotalRecords int64
	SuccessCount int64
	FailureCount int64
	CreatedCount int64
	UpdatedCount int64
	SkippedCount int64
	Errors       []RecordError
}
