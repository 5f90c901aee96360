package app

import (
	"time"

	"silicon-lab-service/internal/domain"
)

// Fixed economy of the production chain. Stage gates and purity thresholds
// come straight from the lab's rulebook; chip manufacture additionally burns
// points to model fab running costs.
const (
	purifyInput  = 10 // rawMaterial per purification run
	ingotInput   = 10 // crudeSilicon per crystal pull
	wafersPerRod = 5  // wafers cut from one ingot

	waferPerChip    = 2
	memoryPointCost = 300
	powerPointCost  = 500
	memoryChipPrice = 500
	powerChipPrice  = 800

	materialBatchCost = 1000
	materialBatchSize = 100

	memoryChipDuration = 900
	powerChipDuration  = 1200
	ingotDurationScale = 1.5

	powerWaferPurity = 95   // at or above: cutting yields power wafers
	stage2Purity     = 90   // purity gate for stage 1 -> 2
	stage3Purity     = 99.9 // purity gate for stage 2 -> 3

	demoSpeedRate = 60 // countdown units per tick in accelerated mode
)

// newSessionState seeds the play state for a student entering the lab.
func newSessionState(classroom domain.Classroom, now time.Time) domain.GameSession {
	return domain.GameSession{
		Stage:      1,
		LevelIndex: 0,
		Points:     classroom.InitialPoints,
		StartTime:  now,
	}
}

// buyMaterials trades a fixed batch of points for raw material.
func buyMaterials(s *domain.GameSession) error {
	if s.Points < materialBatchCost {
		return domain.ErrInsufficientPoints
	}
	s.Points -= materialBatchCost
	s.Inventory.RawMaterial += materialBatchSize
	return nil
}

// taskDuration returns the countdown length in seconds for a task at the
// session's current rank.
func taskDuration(s *domain.GameSession, kind domain.TaskKind) float64 {
	base := domain.LevelAt(s.LevelIndex).BaseDuration
	switch kind {
	case domain.TaskPurify:
		return base
	case domain.TaskIngot:
		return base * ingotDurationScale
	case domain.TaskMemoryChip:
		return memoryChipDuration
	case domain.TaskPowerChip:
		return powerChipDuration
	}
	return base
}

// checkTaskStart validates a task's resource and stage preconditions without
// touching state. Costs are only deducted when the countdown completes.
func checkTaskStart(s *domain.GameSession, kind domain.TaskKind) error {
	if s.Task != nil {
		return domain.ErrTaskInProgress
	}
	switch kind {
	case domain.TaskPurify:
		if s.Inventory.RawMaterial < purifyInput {
			return domain.ErrInsufficientResources
		}
	case domain.TaskIngot:
		if s.Stage < 2 {
			return domain.ErrStageLocked
		}
		if s.Inventory.CrudeSilicon < ingotInput {
			return domain.ErrInsufficientResources
		}
	case domain.TaskMemoryChip:
		if s.Stage < 3 {
			return domain.ErrStageLocked
		}
		if s.Inventory.MemoryWafer < waferPerChip {
			return domain.ErrInsufficientResources
		}
		if s.Points < memoryPointCost {
			return domain.ErrInsufficientPoints
		}
	case domain.TaskPowerChip:
		if s.Stage < 3 {
			return domain.ErrStageLocked
		}
		if s.Inventory.PowerWafer < waferPerChip {
			return domain.ErrInsufficientResources
		}
		if s.Points < powerPointCost {
			return domain.ErrInsufficientPoints
		}
	default:
		return domain.ErrInsufficientResources
	}
	return nil
}

// startTask arms the countdown after validation.
func startTask(s *domain.GameSession, kind domain.TaskKind) error {
	if err := checkTaskStart(s, kind); err != nil {
		return err
	}
	rate := 1.0
	if s.DemoSpeed {
		rate = demoSpeedRate
	}
	s.Task = &domain.Task{Kind: kind, Remaining: taskDuration(s, kind), Rate: rate}
	return nil
}

// setDemoSpeed toggles the accelerated-pacing mode. It changes only how fast
// the countdown drains, never the task's outcome.
func setDemoSpeed(s *domain.GameSession, enabled bool) {
	s.DemoSpeed = enabled
	if s.Task != nil {
		if enabled {
			s.Task.Rate = demoSpeedRate
		} else {
			s.Task.Rate = 1
		}
	}
}

// advanceTask moves the countdown forward by elapsed wall-clock seconds and,
// on reaching zero, atomically applies the task's effect. Returns whether a
// task completed during this advance.
func advanceTask(s *domain.GameSession, elapsed float64, rnd Rand) bool {
	if s.Task == nil || elapsed <= 0 {
		return false
	}
	s.Task.Remaining -= elapsed * s.Task.Rate
	if s.Task.Remaining > 0 {
		return false
	}
	kind := s.Task.Kind
	s.Task = nil
	completeTask(s, kind, rnd)
	return true
}

func completeTask(s *domain.GameSession, kind domain.TaskKind, rnd Rand) {
	maxPurity := domain.LevelAt(s.LevelIndex).MaxPurity
	switch kind {
	case domain.TaskPurify:
		s.Inventory.RawMaterial -= purifyInput
		s.Inventory.CrudeSilicon++
		s.Purity = min(maxPurity, 80+rnd.Float64()*10)
	case domain.TaskIngot:
		s.Inventory.CrudeSilicon -= ingotInput
		s.Inventory.SiliconIngot++
		s.Purity = min(maxPurity, 90+rnd.Float64()*5)
	case domain.TaskMemoryChip:
		s.Inventory.MemoryWafer -= waferPerChip
		s.Points -= memoryPointCost
		s.Inventory.MemoryChip++
		s.ManufactureSuccess++
		s.ManufactureTotal++
	case domain.TaskPowerChip:
		s.Inventory.PowerWafer -= waferPerChip
		s.Points -= powerPointCost
		s.Inventory.PowerChip++
		s.ManufactureSuccess++
		s.ManufactureTotal++
	}
}

// cutIngots converts the entire ingot stock into wafers in one shot. The
// purity threshold is a hard classifier: everything becomes one wafer type.
func cutIngots(s *domain.GameSession) error {
	if s.Inventory.SiliconIngot <= 0 {
		return domain.ErrInsufficientResources
	}
	count := s.Inventory.SiliconIngot
	s.Inventory.SiliconIngot = 0
	if s.Purity < powerWaferPurity {
		s.Inventory.MemoryWafer += count * wafersPerRod
	} else {
		s.Inventory.PowerWafer += count * wafersPerRod
	}
	return nil
}

// sellChips liquidates all finished chips at fixed unit prices. Always allowed.
func sellChips(s *domain.GameSession) {
	s.Points += s.Inventory.MemoryChip*memoryChipPrice + s.Inventory.PowerChip*powerChipPrice
	s.Inventory.MemoryChip = 0
	s.Inventory.PowerChip = 0
}

// applyAnswer resolves a quiz submission against the classroom's reward
// configuration and returns the streak bonus awarded, if any.
func applyAnswer(s *domain.GameSession, reward domain.Reward, correct bool) int {
	if !correct {
		s.Streak = 0
		s.TotalAnswered++
		return 0
	}
	s.Streak++
	bonus := 0
	if s.Streak >= reward.StreakN {
		bonus = reward.StreakBonusPoints
		s.Points += bonus
		s.Streak = 0
	}
	s.Exp += reward.CorrectExp
	s.CorrectCount++
	s.TotalAnswered++
	return bonus
}

// promotionEligible reports whether accumulated experience clears the current
// rank's threshold. The senior rank's threshold is infinite, so it never does.
func promotionEligible(s *domain.GameSession) bool {
	return float64(s.Exp) >= domain.LevelAt(s.LevelIndex).ExpThreshold
}

// promote advances the rank by one, capped at the top. Rank never regresses.
func promote(s *domain.GameSession) error {
	if !promotionEligible(s) {
		return domain.ErrNotEligible
	}
	if s.LevelIndex < domain.MaxLevelIndex {
		s.LevelIndex++
	}
	return nil
}

// advanceStage moves the session to the next pipeline phase when the purity
// gate is met. Stage never regresses and is rejected with no side effect.
func advanceStage(s *domain.GameSession) error {
	switch {
	case s.Stage == 1 && s.Purity >= stage2Purity:
		s.Stage = 2
	case s.Stage == 2 && s.Purity >= stage3Purity:
		s.Stage = 3
	default:
		return domain.ErrStageRequirement
	}
	return nil
}
