package mapping

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a mapping. Only confirmed mappings are
// eligible for materialization; resolve() honors confirmed and applied
// mappings identically, so materialization is an optimization, never
// required for correctness.
type Status string

const (
	StatusProposed  Status = "proposed"
	StatusConfirmed Status = "confirmed"
	StatusApplied   Status = "applied"
)

// Mapping is a persisted correction scoped to a single sub-match record. It
// redirects one historical fact from the recorded identity to the correct
// one without mutating the fact itself.
type Mapping struct {
	ID                int64
	SubMatchID        int64
	OriginalPlayerID  int64
	CorrectPlayerID   int64
	CorrectPlayerName string
	MatchContext      string
	Confidence        int `validate:"min=1,max=100"`
	MappingReason     string
	Notes             string
	Status            Status
	// AppliedTeamNumbers records the team slots materialization reassigned.
	// Empty until the mapping is applied; reversal moves exactly these facts
	// back and leaves any other row of the correct player alone.
	AppliedTeamNumbers []int
	CreatedAt          time.Time
}

func (m Mapping) Validate() error {
	if m.SubMatchID <= 0 {
		return fmt.Errorf("sub-match id must be positive")
	}
	if m.OriginalPlayerID <= 0 || m.CorrectPlayerID <= 0 {
		return fmt.Errorf("player ids must be positive")
	}
	if m.OriginalPlayerID == m.CorrectPlayerID {
		return fmt.Errorf("self-mapping: original and correct player are both %d", m.OriginalPlayerID)
	}
	if m.CorrectPlayerName == "" {
		return fmt.Errorf("correct player name is required")
	}
	if m.Confidence < 1 || m.Confidence > 100 {
		return fmt.Errorf("confidence must be within 1-100, got %d", m.Confidence)
	}
	switch m.Status {
	case StatusProposed, StatusConfirmed, StatusApplied:
	default:
		return fmt.Errorf("invalid mapping status: %s", m.Status)
	}
	return nil
}
