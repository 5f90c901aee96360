package domain

import "time"

// Reward is the per-classroom quiz reward configuration.
type Reward struct {
	CorrectExp        int `json:"correctExp"`
	StreakN           int `json:"streakN"`
	StreakBonusPoints int `json:"streakBonusPoints"`
}

// DefaultReward mirrors the classroom defaults teachers get unless they override them.
func DefaultReward() Reward {
	return Reward{CorrectExp: 1, StreakN: 5, StreakBonusPoints: 200}
}

// Classroom is a time-boxed class created by a teacher. The code doubles as the
// invite token students type in. Classrooms are immutable after creation; expiry
// is only checked at join time.
type Classroom struct {
	Code          string    `json:"code"`
	Name          string    `json:"className"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpireAt      time.Time `json:"expireAt"`
	InitialPoints int       `json:"initialPoints"`
	Reward        Reward    `json:"reward"`
}

// Expired reports whether the classroom's invite window has passed.
func (c Classroom) Expired(now time.Time) bool {
	return c.ExpireAt.Before(now)
}

// StudentResult is a roster entry, upserted by nickname on every submission.
type StudentResult struct {
	Nickname     string     `json:"nickname"`
	Points       int        `json:"points"`
	Exp          int        `json:"exp"`
	Level        int        `json:"level"` // 1-based engineer level
	Stage        int        `json:"stage"`
	FinishedAt   *time.Time `json:"finishedAt"`
	YieldRate    float64    `json:"yieldRate"`
	Accuracy     float64    `json:"accuracy"`
	LastSubmitAt time.Time  `json:"lastSubmitAt"`
}

// Inventory tracks the production chain counters. All counters stay >= 0; the
// engine gates every conversion on availability before it may start.
type Inventory struct {
	RawMaterial  int `json:"rawMaterial"`
	CrudeSilicon int `json:"crudeSilicon"`
	SiliconIngot int `json:"siliconIngot"`
	MemoryWafer  int `json:"memoryWafer"`
	PowerWafer   int `json:"powerWafer"`
	MemoryChip   int `json:"memoryChip"`
	PowerChip    int `json:"powerChip"`
}

// TaskKind identifies a timed production action.
type TaskKind string

const (
	TaskPurify     TaskKind = "purify"
	TaskIngot      TaskKind = "ingot"
	TaskMemoryChip TaskKind = "manufacture_memory"
	TaskPowerChip  TaskKind = "manufacture_power"
)

// Task is the countdown state of the single in-flight production action.
// Remaining is in seconds of represented work; Rate is how many of those
// seconds elapse per wall-clock second (1 normally, 60 in demo mode).
type Task struct {
	Kind      TaskKind `json:"kind"`
	Remaining float64  `json:"remaining"`
	Rate      float64  `json:"rate"`
}

// GameSession is the per-student play state, one per (classroom, nickname).
type GameSession struct {
	Stage              int       `json:"stage"`
	LevelIndex         int       `json:"levelIndex"`
	Points             int       `json:"points"`
	Exp                int       `json:"exp"`
	Purity             float64   `json:"purity"`
	Streak             int       `json:"streak"`
	Inventory          Inventory `json:"inventory"`
	CorrectCount       int       `json:"correctCount"`
	TotalAnswered      int       `json:"totalAnswered"`
	ManufactureSuccess int       `json:"manufactureSuccess"`
	ManufactureTotal   int       `json:"manufactureTotal"`
	StartTime          time.Time `json:"startTime"`
	Finished           bool      `json:"isFinished"`
	DemoSpeed          bool      `json:"demoSpeed"`
	Task               *Task     `json:"task,omitempty"`
}

// Question is a static quiz item gated by stage: it is only drawn once a
// session has reached that stage or later.
type Question struct {
	ID          int      `json:"id"`
	Stage       int      `json:"stage"`
	Prompt      string   `json:"text"`
	Options     []string `json:"options"`
	Answer      int      `json:"answer"` // zero-based index of the correct option
	Explanation string   `json:"explanation"`
}
