package memory

import (
	"time"

	"github.com/goldenstat/identity/internal/domain/player"
)

// Seed builds a small league snapshot with the name problems the resolver
// exists for: case variants, a shared first name across clubs, a dropped
// letter, and a bare first name next to the full one.
func Seed() *Store {
	store := NewStore()

	players := []player.Player{
		{ID: 1, Name: "Roger Strömvall"},
		{ID: 2, Name: "ROGER STRÖMVALL"},
		{ID: 3, Name: "Peter Book"},
		{ID: 4, Name: "Peter Söron"},
		{ID: 5, Name: "Mats Andersson"},
		{ID: 6, Name: "Mats Anderson"},
		{ID: 7, Name: "Johan"},
		{ID: 8, Name: "Johan Lindqvist"},
		{ID: 9, Name: "Anna Nilsson"},
	}
	for _, p := range players {
		store.AddPlayer(p)
	}

	teams := map[int64]string{
		1: "AIK Dart",
		2: "HMT Dart",
		3: "SpikKastarna",
		4: "Oilers",
		5: "Dartanjang",
		6: "Tyresö DC",
	}
	for id, name := range teams {
		store.AddTeam(id, name)
	}

	matches := []Match{
		{ID: 1, Team1ID: 1, Team2ID: 2, Division: "2A", Season: "2023/2024", MatchDate: date(2023, 10, 3)},
		{ID: 2, Team1ID: 1, Team2ID: 3, Division: "2A", Season: "2023/2024", MatchDate: date(2023, 11, 14)},
		{ID: 3, Team1ID: 2, Team2ID: 1, Division: "2A", Season: "2023/2024", MatchDate: date(2024, 2, 6)},
		{ID: 4, Team1ID: 4, Team2ID: 5, Division: "3B", Season: "2023/2024", MatchDate: date(2023, 10, 10)},
		{ID: 5, Team1ID: 5, Team2ID: 4, Division: "3B", Season: "2023/2024", MatchDate: date(2024, 1, 23)},
		{ID: 6, Team1ID: 3, Team2ID: 6, Division: "2A", Season: "2024/2025", MatchDate: date(2024, 10, 8)},
		{ID: 7, Team1ID: 6, Team2ID: 3, Division: "2A", Season: "2024/2025", MatchDate: date(2025, 1, 21)},
		{ID: 8, Team1ID: 2, Team2ID: 6, Division: "SL3", Season: "2024/2025", MatchDate: date(2024, 11, 5)},
	}
	for _, m := range matches {
		store.AddMatch(m)
	}

	// Two sub-matches per match.
	for matchID := int64(1); matchID <= 8; matchID++ {
		store.AddSubMatch(matchID*10+1, matchID)
		store.AddSubMatch(matchID*10+2, matchID)
	}

	// Roger Strömvall plays for AIK Dart under both case variants.
	store.AddFact(11, 1, 1)
	store.AddFact(21, 1, 1)
	store.AddFact(22, 2, 1)
	store.AddFact(31, 2, 2)

	// Two different Peters in different clubs, same season.
	store.AddFact(41, 3, 1)
	store.AddFact(51, 3, 2)
	store.AddFact(42, 4, 2)
	store.AddFact(52, 4, 1)

	// Mats Andersson recorded once without the double s, a season later at
	// another club.
	store.AddFact(12, 5, 2)
	store.AddFact(32, 5, 1)
	store.AddFact(61, 6, 1)

	// A bare "Johan" next to Johan Lindqvist at SpikKastarna.
	store.AddFact(62, 8, 1)
	store.AddFact(71, 8, 2)
	store.AddFact(72, 7, 2)

	store.AddFact(81, 9, 1)
	store.AddFact(82, 9, 1)

	return store
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
