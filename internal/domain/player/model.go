package player

import "fmt"

// Player is a raw identity record as written by the ingestion pipeline.
// Several rows may denote the same real person (case variants, nicknames,
// first-name-only entries), and one name string may denote several people.
// The resolution engine never deletes players, it only supersedes them
// through sub-match mappings.
type Player struct {
	ID   int64
	Name string
}

func (p Player) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("player id must be positive")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	return nil
}
