package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/goldenstat/identity/internal/domain/mapping"
	"github.com/goldenstat/identity/internal/domain/participation"
	"github.com/goldenstat/identity/internal/domain/player"
)

// Match carries the metadata participation summaries join against.
type Match struct {
	ID        int64
	Team1ID   int64
	Team2ID   int64
	Division  string
	Season    string
	MatchDate time.Time
}

type factRow struct {
	id         int64
	subMatchID int64
	playerID   int64
	teamNumber int
}

// Store is a map-backed stand-in for the database, shared by the memory
// repositories so joins across players, matches, and facts stay consistent.
type Store struct {
	mu         sync.RWMutex
	players    map[int64]player.Player
	teams      map[int64]string
	matches    map[int64]Match
	subMatches map[int64]int64
	facts      []factRow
	mappings   map[int64]mapping.Mapping

	nextFactID    int64
	nextMappingID int64
}

func NewStore() *Store {
	return &Store{
		players:    make(map[int64]player.Player),
		teams:      make(map[int64]string),
		matches:    make(map[int64]Match),
		subMatches: make(map[int64]int64),
		mappings:   make(map[int64]mapping.Mapping),
	}
}

func (s *Store) AddPlayer(p player.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.ID] = p
}

func (s *Store) AddTeam(id int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[id] = name
}

func (s *Store) AddMatch(m Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
}

func (s *Store) AddSubMatch(id, matchID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subMatches[id] = matchID
}

func (s *Store) AddFact(subMatchID, playerID int64, teamNumber int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextFactID++
	s.facts = append(s.facts, factRow{
		id:         s.nextFactID,
		subMatchID: subMatchID,
		playerID:   playerID,
		teamNumber: teamNumber,
	})
}

// Facts returns the current participation rows sorted by row id, for
// asserting materialization outcomes in tests.
func (s *Store) Facts() []participation.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := append([]factRow(nil), s.facts...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].id < rows[j].id })

	out := make([]participation.Fact, 0, len(rows))
	for _, row := range rows {
		out = append(out, participation.Fact{
			SubMatchID: row.subMatchID,
			PlayerID:   row.playerID,
			TeamNumber: row.teamNumber,
		})
	}
	return out
}

// factExistsLocked must be called with the store lock held.
func (s *Store) factExistsLocked(subMatchID, playerID int64, teamNumber int) bool {
	for _, fact := range s.facts {
		if fact.subMatchID == subMatchID && fact.playerID == playerID && fact.teamNumber == teamNumber {
			return true
		}
	}
	return false
}

// teamNameFor must be called with the store lock held.
func (s *Store) teamNameFor(subMatchID int64, teamNumber int) (string, Match, bool) {
	matchID, ok := s.subMatches[subMatchID]
	if !ok {
		return "", Match{}, false
	}
	m, ok := s.matches[matchID]
	if !ok {
		return "", Match{}, false
	}
	teamID := m.Team1ID
	if teamNumber != 1 {
		teamID = m.Team2ID
	}
	return s.teams[teamID], m, true
}
