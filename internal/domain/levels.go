package domain

import "math"

// EngineerLevel is one rank in the fixed promotion ladder. MaxPurity caps what
// any purification run can reach at that rank, BaseDuration drives task length,
// and ExpThreshold is the experience needed to promote to the next rank.
type EngineerLevel struct {
	Title        string
	MaxPurity    float64
	BaseDuration float64 // seconds
	ExpThreshold float64
}

// Levels is the read-only rank table, indexed 0..3. The senior rank is
// terminal: its threshold can never be reached.
var Levels = [4]EngineerLevel{
	{Title: "Assistant Engineer", MaxPurity: 90, BaseDuration: 600, ExpThreshold: 10},
	{Title: "Junior Engineer", MaxPurity: 95, BaseDuration: 480, ExpThreshold: 30},
	{Title: "Intermediate Engineer", MaxPurity: 99.99, BaseDuration: 300, ExpThreshold: 100},
	{Title: "Senior Engineer", MaxPurity: 99.9999, BaseDuration: 180, ExpThreshold: math.Inf(1)},
}

// MaxLevelIndex is the highest reachable rank ordinal.
const MaxLevelIndex = len(Levels) - 1

// LevelAt clamps an index into the rank table.
func LevelAt(index int) EngineerLevel {
	if index < 0 {
		index = 0
	}
	if index > MaxLevelIndex {
		index = MaxLevelIndex
	}
	return Levels[index]
}
