package domain

import "errors"

var (
	// ErrClassroomNotFound is returned when an invite code does not resolve to a classroom.
	ErrClassroomNotFound = errors.New("classroom not found")
	// ErrClassroomExpired is returned at join time once the invite window has passed.
	ErrClassroomExpired = errors.New("classroom expired")
	// ErrSessionNotFound is returned when a game session has not been initialized.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrTaskInProgress rejects starting a task while one is already counting down.
	ErrTaskInProgress = errors.New("another task is already running")
	// ErrInsufficientResources rejects a task whose inventory precondition is unmet.
	ErrInsufficientResources = errors.New("insufficient resources")
	// ErrInsufficientPoints rejects an action the point balance cannot cover.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrStageLocked rejects a task not yet unlocked at the session's stage.
	ErrStageLocked = errors.New("stage not yet unlocked")
	// ErrStageRequirement rejects a stage advance whose purity gate is unmet.
	ErrStageRequirement = errors.New("stage requirement not met")
	// ErrNotEligible rejects a promotion below the experience threshold.
	ErrNotEligible = errors.New("experience below promotion threshold")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNoQuestions indicates the bank has no question at or below the session's stage.
	ErrNoQuestions = errors.New("no questions available")
	// ErrEmptyRoster indicates an export was requested for a roster with no submissions.
	ErrEmptyRoster = errors.New("roster is empty")
)
