package app

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"silicon-lab-service/internal/domain"
)

// summarize freezes a session into a roster entry. Accuracy defaults to 0
// with no answers; yield defaults to 100 with no manufacture attempts.
func summarize(nickname string, s domain.GameSession, now time.Time) domain.StudentResult {
	accuracy := 0.0
	if s.TotalAnswered > 0 {
		accuracy = float64(s.CorrectCount) / float64(s.TotalAnswered) * 100
	}
	yield := 100.0
	if s.ManufactureTotal > 0 {
		yield = float64(s.ManufactureSuccess) / float64(s.ManufactureTotal) * 100
	}
	result := domain.StudentResult{
		Nickname:     nickname,
		Points:       s.Points,
		Exp:          s.Exp,
		Level:        s.LevelIndex + 1,
		Stage:        s.Stage,
		YieldRate:    yield,
		Accuracy:     accuracy,
		LastSubmitAt: now,
	}
	if s.Finished {
		finished := now
		result.FinishedAt = &finished
	}
	return result
}

// SortRoster orders roster entries for the dashboard by points or experience.
// Ties keep their submission order.
func SortRoster(roster []domain.StudentResult, field string, descending bool) {
	sort.SliceStable(roster, func(i, j int) bool {
		a, b := i, j
		if descending {
			a, b = j, i
		}
		switch field {
		case "exp":
			return roster[a].Exp < roster[b].Exp
		default:
			return roster[a].Points < roster[b].Points
		}
	})
}

var csvHeader = []string{"nickname", "points", "exp", "level", "stage", "finishedAt", "yieldRate", "accuracy", "lastSubmitAt"}

// WriteRosterCSV renders a roster in the teacher export format. Rejects an
// empty roster so teachers don't download a header-only file.
func WriteRosterCSV(w io.Writer, roster []domain.StudentResult) error {
	if len(roster) == 0 {
		return domain.ErrEmptyRoster
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range roster {
		finishedAt := ""
		if r.FinishedAt != nil {
			finishedAt = strconv.FormatInt(r.FinishedAt.UnixMilli(), 10)
		}
		row := []string{
			r.Nickname,
			strconv.Itoa(r.Points),
			strconv.Itoa(r.Exp),
			strconv.Itoa(r.Level),
			strconv.Itoa(r.Stage),
			finishedAt,
			strconv.FormatFloat(r.YieldRate, 'f', -1, 64),
			strconv.FormatFloat(r.Accuracy, 'f', -1, 64),
			strconv.FormatInt(r.LastSubmitAt.UnixMilli(), 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
