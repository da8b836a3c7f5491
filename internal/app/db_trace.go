package app

import "strings"

// Span attributes have a size budget on most backends; summary queries over
// sub_match_participants can get long, so the traced statement is collapsed
// and capped.
const tracedQueryLimit = 512

func formatDBQueryForTrace(query string) string {
	collapsed := strings.Join(strings.Fields(query), " ")
	if len(collapsed) <= tracedQueryLimit {
		return collapsed
	}
	return collapsed[:tracedQueryLimit] + "..."
}
