package postgres

import "time"

type activityRowModel struct {
	PlayerID   int64     `db:"player_id"`
	PlayerName string    `db:"player_name"`
	TeamName   string    `db:"team_name"`
	Division   string    `db:"division"`
	Season     string    `db:"season"`
	DateStart  time.Time `db:"date_start"`
	DateEnd    time.Time `db:"date_end"`
	MatchCount int       `db:"match_count"`
}

type factRefModel struct {
	SubMatchID int64     `db:"sub_match_id"`
	TeamNumber int       `db:"team_number"`
	TeamName   string    `db:"team_name"`
	Division   string    `db:"division"`
	Season     string    `db:"season"`
	MatchDate  time.Time `db:"match_date"`
}

type factModel struct {
	SubMatchID int64 `db:"sub_match_id"`
	PlayerID   int64 `db:"player_id"`
	TeamNumber int   `db:"team_number"`
}

type duplicateFactModel struct {
	SubMatchID int64 `db:"sub_match_id"`
	PlayerID   int64 `db:"player_id"`
	TeamNumber int   `db:"team_number"`
	Count      int   `db:"duplicate_count"`
}
