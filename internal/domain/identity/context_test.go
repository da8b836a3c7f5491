package identity

import "testing"

func TestBuildContexts_MergesTeamsOfOneClub(t *testing.T) {
	normalizer := NewClubNormalizer(DefaultClubAliases())

	rows := []ActivityRow{
		{PlayerID: 1, PlayerName: "Peter Book", TeamName: "Oilers (3FC)", Division: "3FC",
			Season: "2023/2024", DateStart: date("2023-09-01"), DateEnd: date("2023-12-15"), MatchCount: 5},
		{PlayerID: 1, PlayerName: "Peter Book", TeamName: "Oilers", Division: "3FC",
			Season: "2023/2024", DateStart: date("2024-01-10"), DateEnd: date("2024-04-30"), MatchCount: 7},
	}

	contexts := BuildContexts(rows, normalizer)
	if len(contexts) != 1 {
		t.Fatalf("rows normalizing to one club must merge, got %d contexts", len(contexts))
	}

	ctx := contexts[0]
	if ctx.ClubName != "Oilers" {
		t.Fatalf("expected club Oilers, got %q", ctx.ClubName)
	}
	if ctx.MatchCount != 12 {
		t.Fatalf("expected summed match count 12, got %d", ctx.MatchCount)
	}
	if !ctx.DateStart.Equal(date("2023-09-01")) || !ctx.DateEnd.Equal(date("2024-04-30")) {
		t.Fatalf("expected union of date ranges, got %s to %s", ctx.DateStart, ctx.DateEnd)
	}
}

func TestBuildContexts_KeySeparation(t *testing.T) {
	normalizer := NewClubNormalizer(DefaultClubAliases())

	rows := []ActivityRow{
		{PlayerID: 1, PlayerName: "Peter Book", TeamName: "Oilers", Division: "2A", Season: "2023/2024", MatchCount: 5},
		{PlayerID: 1, PlayerName: "Peter Book", TeamName: "Oilers", Division: "3B", Season: "2023/2024", MatchCount: 3},
		{PlayerID: 1, PlayerName: "Peter Book", TeamName: "Oilers", Division: "2A", Season: "2022/2023", MatchCount: 4},
		{PlayerID: 2, PlayerName: "Peter Book", TeamName: "Oilers", Division: "2A", Season: "2023/2024", MatchCount: 2},
	}

	contexts := BuildContexts(rows, normalizer)
	if len(contexts) != 4 {
		t.Fatalf("player, division and season must stay separate keys, got %d contexts", len(contexts))
	}
}

func TestBuildContexts_PreservesInputOrder(t *testing.T) {
	normalizer := NewClubNormalizer(nil)

	rows := []ActivityRow{
		{PlayerID: 2, PlayerName: "B", TeamName: "Dartanjang", Season: "2023/2024", MatchCount: 1},
		{PlayerID: 1, PlayerName: "A", TeamName: "Oilers", Season: "2023/2024", MatchCount: 1},
		{PlayerID: 2, PlayerName: "B", TeamName: "Dartanjang", Season: "2023/2024", MatchCount: 1},
	}

	contexts := BuildContexts(rows, normalizer)
	if len(contexts) != 2 {
		t.Fatalf("expected 2 contexts, got %d", len(contexts))
	}
	if contexts[0].PlayerID != 2 || contexts[1].PlayerID != 1 {
		t.Fatalf("expected first-appearance order, got %+v", contexts)
	}
	if contexts[0].MatchCount != 2 {
		t.Fatalf("expected merged match count 2, got %d", contexts[0].MatchCount)
	}
}

func TestBuildContexts_Empty(t *testing.T) {
	contexts := BuildContexts(nil, NewClubNormalizer(nil))
	if len(contexts) != 0 {
		t.Fatalf("expected no contexts for no rows, got %d", len(contexts))
	}
}
