package progress

import (
	"sort"

	"github.com/joshsmithxrm/ppds-engine/pkg/types"
)

// classSuggestion is the one-line suggestion shown for a detected error
// class (§4.8's "3-5 known classes").
var classSuggestion = map[string]string{
	types.ErrorCodeMissingUser:      "a referenced user or team does not exist in the target — check user mapping or pre-provision the user",
	types.ErrorCodeMissingReference: "a lookup target record does not exist in the target — check tier ordering or pre-load the referenced entity",
	types.ErrorCodeDuplicate:        "a record with the same alternate key already exists — use Upsert instead of Create, or skip duplicates",
	types.ErrorCodePermission:       "the importing identity lacks privilege on this entity or field — grant the required security role",
	types.ErrorCodeRequiredField:    "a required field was left empty by the mapping — add a default value or source column",
}

// errorCluster groups same-class errors with a count and a single
// representative example.
type errorCluster struct {
	ErrorCode  string
	Count      int
	Suggestion string
	Example    types.RecordError
}

// clusterErrors groups errs by ErrorCode, returning clusters ordered by
// descending count (ties broken by first-seen order).
func clusterErrors(errs []types.RecordError) []errorCluster {
	order := make([]string, 0)
	byCode := make(map[string]*errorCluster)

	for _, e := range errs {
		code := e.ErrorCode
		if code == "" {
			code = types.ErrorCodeUnknown
		}
		c, ok := byCode[code]
		if !ok {
			c = &errorCluster{ErrorCode: code, Suggestion: classSuggestion[code], Example: e}
			byCode[code] = c
			order = append(order, code)
		}
		c.Count++
	}

	out := make([]errorCluster, 0, len(order))
	for _, code := range order {
		out = append(out, *byCode[code])
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
