package participation

import "time"

// Fact is the append-only ground truth "this player id was recorded in this
// sub-match on this team". Facts are owned by the ingestion pipeline; the
// resolution engine only reads them, except for explicit materialization of
// confirmed mappings.
type Fact struct {
	SubMatchID int64
	PlayerID   int64
	TeamNumber int
}

// DuplicateFact is a fact recorded more than once, usually by a mapping
// materialized onto a sub-match that already had the target player.
type DuplicateFact struct {
	Fact
	Count int
}

// FactRef is a fact joined to its match metadata, used to scope mapping
// creation to the exact sub-matches that justified a merge decision.
type FactRef struct {
	SubMatchID int64
	TeamNumber int
	TeamName   string
	Division   string
	Season     string
	MatchDate  time.Time
}
