package app

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"silicon-lab-service/internal/domain"
)

func TestWriteRosterCSV(t *testing.T) {
	submitted := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	finished := submitted.Add(-5 * time.Minute)
	roster := []domain.StudentResult{
		{
			Nickname: "alice", Points: 3100, Exp: 12, Level: 2, Stage: 3,
			FinishedAt: &finished, YieldRate: 100, Accuracy: 87.5, LastSubmitAt: submitted,
		},
		{
			Nickname: "bob", Points: 800, Exp: 4, Level: 1, Stage: 1,
			YieldRate: 100, Accuracy: 0, LastSubmitAt: submitted,
		},
	}

	var buf bytes.Buffer
	if err := WriteRosterCSV(&buf, roster); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "nickname,points,exp,level,stage,finishedAt,yieldRate,accuracy,lastSubmitAt" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "alice,3100,12,2,3,") {
		t.Fatalf("unexpected alice row: %q", lines[1])
	}
	// a never-finished student gets an empty finishedAt column
	if !strings.Contains(lines[2], "bob,800,4,1,1,,") {
		t.Fatalf("expected empty finishedAt for bob: %q", lines[2])
	}
}

func TestWriteRosterCSVRejectsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRosterCSV(&buf, nil); err != domain.ErrEmptyRoster {
		t.Fatalf("expected ErrEmptyRoster, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written for an empty roster")
	}
}

func TestSortRoster(t *testing.T) {
	roster := []domain.StudentResult{
		{Nickname: "alice", Points: 500, Exp: 20},
		{Nickname: "bob", Points: 900, Exp: 5},
		{Nickname: "carol", Points: 700, Exp: 30},
	}

	SortRoster(roster, "points", true)
	if roster[0].Nickname != "bob" || roster[2].Nickname != "alice" {
		t.Fatalf("points desc: %v %v %v", roster[0].Nickname, roster[1].Nickname, roster[2].Nickname)
	}

	SortRoster(roster, "exp", false)
	if roster[0].Nickname != "bob" || roster[2].Nickname != "carol" {
		t.Fatalf("exp asc: %v %v %v", roster[0].Nickname, roster[1].Nickname, roster[2].Nickname)
	}
}

func TestSortRosterKeepsTieOrder(t *testing.T) {
	roster := []domain.StudentResult{
		{Nickname: "alice", Points: 500},
		{Nickname: "bob", Points: 500},
		{Nickname: "carol", Points: 900},
		{Nickname: "dave", Points: 500},
	}

	SortRoster(roster, "points", true)
	if roster[0].Nickname != "carol" {
		t.Fatalf("expected carol first, got %v", roster[0].Nickname)
	}
	// equal points keep their submission order in both directions
	for i, want := range []string{"alice", "bob", "dave"} {
		if roster[i+1].Nickname != want {
			t.Fatalf("descending ties reordered: %v %v %v", roster[1].Nickname, roster[2].Nickname, roster[3].Nickname)
		}
	}

	SortRoster(roster, "points", false)
	for i, want := range []string{"alice", "bob", "dave"} {
		if roster[i].Nickname != want {
			t.Fatalf("ascending ties reordered: %v %v %v", roster[0].Nickname, roster[1].Nickname, roster[2].Nickname)
		}
	}
}

func TestSummarizeMarksFinished(t *testing.T) {
	now := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	session := domain.GameSession{
		Points: 100, Exp: 7, LevelIndex: 1, Stage: 2,
		CorrectCount: 3, TotalAnswered: 4,
		ManufactureSuccess: 2, ManufactureTotal: 2,
		Finished: true,
	}

	result := summarize("alice", session, now)
	if result.Level != 2 {
		t.Fatalf("level is 1-based, got %d", result.Level)
	}
	if result.Accuracy != 75 {
		t.Fatalf("expected accuracy 75, got %v", result.Accuracy)
	}
	if result.YieldRate != 100 {
		t.Fatalf("expected yield 100, got %v", result.YieldRate)
	}
	if result.FinishedAt == nil || !result.FinishedAt.Equal(now) {
		t.Fatalf("finished session must carry finishedAt")
	}
}
