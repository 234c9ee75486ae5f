package progress

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRendersHumanLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(FormatHuman, &buf, Options{NoColor: true})

	events := make(chan types.ProgressEvent, 2)
	events <- types.ProgressEvent{Phase: types.PhaseImporting, Entity: "account", Current: 50, Total: 100, SuccessCount: 50}
	close(events)
	r.Run(events)

	out := buf.String()
	assert.Contains(t, out, "Importing")
	assert.Contains(t, out, "account")
	assert.Contains(t, out, "50/100")
}

func TestRunRendersJSONLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(FormatJSON, &buf, Options{})

	events := make(chan types.ProgressEvent, 1)
	events <- types.ProgressEvent{Phase: types.PhaseImporting, Entity: "account", Current: 1, Total: 10}
	close(events)
	r.Run(events)

	line := strings.TrimSpace(buf.String())
	var got types.ProgressEvent
	require.NoError(t, json.Unmarshal([]byte(line), &got))
	assert.Equal(t, types.PhaseImporting, got.Phase)
	assert.Equal(t, "account", got.Entity)
}

func TestSummaryEventIncludesTruncatedErrorsAndPatterns(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(FormatHuman, &buf, Options{NoColor: true, MaxErrorSamples: 1})

	samples := []types.ErrorSample{
		{RowRef: "1", Entity: "account", Message: "missing reference"},
		{RowRef: "2", Entity: "account", Message: "missing reference"},
	}

	events := make(chan types.ProgressEvent, 1)
	events <- types.ProgressEvent{
		Phase: types.PhaseComplete, Overall: true,
		SuccessCount: 8, FailureCount: 2,
		ErrorSamples: samples,
	}
	close(events)
	r.Run(events)

	out := buf.String()
	assert.Contains(t, out, "complete: 8 ok, 2 failed")
	assert.Contains(t, out, "... 1 more")
}

func TestETAIsZeroWithoutTotal(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(FormatHuman, &buf, Options{NoColor: true})
	eta := r.estimateETA(types.ProgressEvent{Phase: types.PhaseImporting, Entity: "account", InstantRate: 10})
	assert.Equal(t, time.Duration(0), eta)
}

func TestFormatETABoundary(t *testing.T) {
	assert.Equal(t, "0:05", formatETA(5*time.Second))
	assert.Equal(t, "1:00:00", formatETA(time.Hour))
}

func TestClusterErrorsOrdersByCountDescending(t *testing.T) {
	errs := []types.RecordError{
		{ErrorCode: types.ErrorCodeDuplicate},
		{ErrorCode: types.ErrorCodeMissingReference},
		{ErrorCode: types.ErrorCodeMissingReference},
		{ErrorCode: types.ErrorCodeMissingReference},
	}
	clusters := clusterErrors(errs)
	require.Len(t, clusters, 2)
	assert.Equal(t, types.ErrorCodeMissingReference, clusters[0].ErrorCode)
	assert.Equal(t, 3, clusters[0].Count)
}
