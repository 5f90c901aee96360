package app

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"silicon-lab-service/internal/domain"
)

// ClassroomStore persists classroom records keyed by invite code.
type ClassroomStore interface {
	SaveClassroom(ctx context.Context, classroom domain.Classroom) error
	Classroom(ctx context.Context, code string) (domain.Classroom, bool, error)
	Classrooms(ctx context.Context) ([]domain.Classroom, error)
}

// RosterStore persists the per-classroom result roster as a whole; upsert
// semantics live in the service, the store stays a dumb read/write pair.
type RosterStore interface {
	Roster(ctx context.Context, code string) ([]domain.StudentResult, error)
	SaveRoster(ctx context.Context, code string, roster []domain.StudentResult) error
}

// SessionStore persists one game session per (classroom code, nickname).
type SessionStore interface {
	Session(ctx context.Context, code, nickname string) (domain.GameSession, bool, error)
	SaveSession(ctx context.Context, code, nickname string, session domain.GameSession) error
}

// Store aggregates the typed persistence ports (in-memory, Redis, etc).
type Store interface {
	ClassroomStore
	RosterStore
	SessionStore
	// Wipe clears every stored record. Administrative reset only.
	Wipe(ctx context.Context) error
}

// QuestionRepository serves the static question bank (from cache/backing store).
type QuestionRepository interface {
	Questions(ctx context.Context) ([]domain.Question, error)
}

// Rand is the randomness the engine consumes: purity rolls and question picks.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// CodePrefix starts every generated classroom invite code.
const CodePrefix = "XN-"

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const codeLength = 5

// GameService contains the lab's use cases: classroom lifecycle, the student
// production/quiz loop, and result reporting.
type GameService struct {
	store     Store
	questions QuestionRepository
	now       func() time.Time
	rnd       Rand
}

func NewGameService(store Store, questions QuestionRepository) *GameService {
	rnd := &lockedRand{src: rand.New(rand.NewSource(time.Now().UnixNano()))}
	return NewGameServiceWithClock(store, questions, time.Now, rnd)
}

// lockedRand serializes access to a *rand.Rand, which is not safe for
// concurrent use. Every websocket connection drives the engine from its own
// goroutines (read loop plus countdown ticker), so rolls and question picks
// from different students hit the source at the same time.
type lockedRand struct {
	mu  sync.Mutex
	src *rand.Rand
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float64()
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

// NewGameServiceWithClock is test-only for deterministic timestamps and rolls.
func NewGameServiceWithClock(store Store, questions QuestionRepository, now func() time.Time, rnd Rand) *GameService {
	return &GameService{store: store, questions: questions, now: now, rnd: rnd}
}

// CreateClassroom registers a new time-boxed classroom and hands back the
// generated invite code. A nil reward falls back to the defaults.
func (g *GameService) CreateClassroom(ctx context.Context, name string, validFor time.Duration, initialPoints int, reward *domain.Reward) (domain.Classroom, error) {
	now := g.now()
	classroom := domain.Classroom{
		Code:          g.generateCode(),
		Name:          name,
		CreatedAt:     now,
		ExpireAt:      now.Add(validFor),
		InitialPoints: initialPoints,
		Reward:        domain.DefaultReward(),
	}
	if reward != nil {
		classroom.Reward = *reward
	}
	if err := g.store.SaveClassroom(ctx, classroom); err != nil {
		return domain.Classroom{}, err
	}
	return classroom, nil
}

func (g *GameService) generateCode() string {
	var b strings.Builder
	b.WriteString(CodePrefix)
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[g.rnd.Intn(len(codeAlphabet))])
	}
	return b.String()
}

// Classrooms lists every stored classroom for the teacher dashboard.
func (g *GameService) Classrooms(ctx context.Context) ([]domain.Classroom, error) {
	return g.store.Classrooms(ctx)
}

// Roster returns the submitted results for a classroom.
func (g *GameService) Roster(ctx context.Context, code string) ([]domain.StudentResult, error) {
	code = NormalizeCode(code)
	if _, ok, err := g.store.Classroom(ctx, code); err != nil {
		return nil, err
	} else if !ok {
		return nil, domain.ErrClassroomNotFound
	}
	return g.store.Roster(ctx, code)
}

// NormalizeCode upper-cases student input so invite codes are case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Join validates an invite code for a student and reports whether a previous
// session exists for the nickname. Expiry is only enforced here.
func (g *GameService) Join(ctx context.Context, code, nickname string) (domain.Classroom, bool, error) {
	code = NormalizeCode(code)
	classroom, ok, err := g.store.Classroom(ctx, code)
	if err != nil {
		return domain.Classroom{}, false, err
	}
	if !ok {
		return domain.Classroom{}, false, domain.ErrClassroomNotFound
	}
	if classroom.Expired(g.now()) {
		return domain.Classroom{}, false, domain.ErrClassroomExpired
	}
	_, resumed, err := g.store.Session(ctx, code, nickname)
	if err != nil {
		return domain.Classroom{}, false, err
	}
	return classroom, resumed, nil
}

// Session loads the student's play state, creating a fresh one seeded from the
// classroom's initial points on first entry.
func (g *GameService) Session(ctx context.Context, code, nickname string) (domain.GameSession, error) {
	code = NormalizeCode(code)
	classroom, ok, err := g.store.Classroom(ctx, code)
	if err != nil {
		return domain.GameSession{}, err
	}
	if !ok {
		return domain.GameSession{}, domain.ErrClassroomNotFound
	}
	session, ok, err := g.store.Session(ctx, code, nickname)
	if err != nil {
		return domain.GameSession{}, err
	}
	if ok {
		return session, nil
	}
	session = newSessionState(classroom, g.now())
	if err := g.store.SaveSession(ctx, code, nickname, session); err != nil {
		return domain.GameSession{}, err
	}
	return session, nil
}

// mutate loads a session, applies fn, and persists the result. A failing fn
// leaves stored state untouched.
func (g *GameService) mutate(ctx context.Context, code, nickname string, fn func(*domain.GameSession) error) (domain.GameSession, error) {
	code = NormalizeCode(code)
	session, ok, err := g.store.Session(ctx, code, nickname)
	if err != nil {
		return domain.GameSession{}, err
	}
	if !ok {
		return domain.GameSession{}, domain.ErrSessionNotFound
	}
	if err := fn(&session); err != nil {
		return domain.GameSession{}, err
	}
	if err := g.store.SaveSession(ctx, code, nickname, session); err != nil {
		return domain.GameSession{}, err
	}
	return session, nil
}

// BuyMaterials trades points for a batch of raw material.
func (g *GameService) BuyMaterials(ctx context.Context, code, nickname string) (domain.GameSession, error) {
	return g.mutate(ctx, code, nickname, buyMaterials)
}

// StartTask arms a timed production action after validating its preconditions.
func (g *GameService) StartTask(ctx context.Context, code, nickname string, kind domain.TaskKind) (domain.GameSession, error) {
	return g.mutate(ctx, code, nickname, func(s *domain.GameSession) error {
		return startTask(s, kind)
	})
}

// SetDemoSpeed toggles the accelerated countdown used for demonstrations.
func (g *GameService) SetDemoSpeed(ctx context.Context, code, nickname string, enabled bool) (domain.GameSession, error) {
	return g.mutate(ctx, code, nickname, func(s *domain.GameSession) error {
		setDemoSpeed(s, enabled)
		return nil
	})
}

// Advance moves the active task countdown forward by elapsed wall-clock
// seconds, applying the completion effect when it reaches zero. The second
// return reports whether a task completed during this advance.
func (g *GameService) Advance(ctx context.Context, code, nickname string, elapsed float64) (domain.GameSession, bool, error) {
	completed := false
	session, err := g.mutate(ctx, code, nickname, func(s *domain.GameSession) error {
		completed = advanceTask(s, elapsed, g.rnd)
		return nil
	})
	return session, completed, err
}

// CutIngots converts the whole ingot stock into wafers, classified by purity.
func (g *GameService) CutIngots(ctx context.Context, code, nickname string) (domain.GameSession, error) {
	return g.mutate(ctx, code, nickname, cutIngots)
}

// SellChips liquidates all finished chips into points.
func (g *GameService) SellChips(ctx context.Context, code, nickname string) (domain.GameSession, error) {
	return g.mutate(ctx, code, nickname, func(s *domain.GameSession) error {
		sellChips(s)
		return nil
	})
}

// DrawQuestion picks a question uniformly at random from the bank entries the
// session's stage has unlocked.
func (g *GameService) DrawQuestion(ctx context.Context, code, nickname string) (domain.Question, error) {
	code = NormalizeCode(code)
	session, ok, err := g.store.Session(ctx, code, nickname)
	if err != nil {
		return domain.Question{}, err
	}
	if !ok {
		return domain.Question{}, domain.ErrSessionNotFound
	}
	return g.drawForStage(ctx, session.Stage)
}

func (g *GameService) drawForStage(ctx context.Context, stage int) (domain.Question, error) {
	bank, err := g.questions.Questions(ctx)
	if err != nil {
		return domain.Question{}, err
	}
	pool := make([]domain.Question, 0, len(bank))
	for _, q := range bank {
		if q.Stage <= stage {
			pool = append(pool, q)
		}
	}
	if len(pool) == 0 {
		return domain.Question{}, domain.ErrNoQuestions
	}
	return pool[g.rnd.Intn(len(pool))], nil
}

// AnswerOutcome reports how a quiz submission resolved.
type AnswerOutcome struct {
	Correct     bool   `json:"correct"`
	ExpAwarded  int    `json:"expAwarded"`
	StreakBonus int    `json:"streakBonus"`
	Streak      int    `json:"streak"`
	Explanation string `json:"explanation"`
}

// SubmitAnswer grades a quiz answer and applies the classroom's reward rules.
func (g *GameService) SubmitAnswer(ctx context.Context, code, nickname string, questionID, option int) (domain.GameSession, AnswerOutcome, error) {
	code = NormalizeCode(code)
	classroom, ok, err := g.store.Classroom(ctx, code)
	if err != nil {
		return domain.GameSession{}, AnswerOutcome{}, err
	}
	if !ok {
		return domain.GameSession{}, AnswerOutcome{}, domain.ErrClassroomNotFound
	}
	bank, err := g.questions.Questions(ctx)
	if err != nil {
		return domain.GameSession{}, AnswerOutcome{}, err
	}
	var question *domain.Question
	for i := range bank {
		if bank[i].ID == questionID {
			question = &bank[i]
			break
		}
	}
	if question == nil {
		return domain.GameSession{}, AnswerOutcome{}, domain.ErrQuestionNotFound
	}

	outcome := AnswerOutcome{Correct: option == question.Answer, Explanation: question.Explanation}
	session, err := g.mutate(ctx, code, nickname, func(s *domain.GameSession) error {
		// only questions the draw could surface are gradeable
		if question.Stage > s.Stage {
			return domain.ErrStageLocked
		}
		outcome.StreakBonus = applyAnswer(s, classroom.Reward, outcome.Correct)
		outcome.Streak = s.Streak
		if outcome.Correct {
			outcome.ExpAwarded = classroom.Reward.CorrectExp
		}
		return nil
	})
	if err != nil {
		return domain.GameSession{}, AnswerOutcome{}, err
	}
	return session, outcome, nil
}

// PromotionEligible reports whether the session's experience clears the
// current rank's threshold.
func (g *GameService) PromotionEligible(ctx context.Context, code, nickname string) (bool, error) {
	code = NormalizeCode(code)
	session, ok, err := g.store.Session(ctx, code, nickname)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, domain.ErrSessionNotFound
	}
	return promotionEligible(&session), nil
}

// Promote advances the rank once the threshold is met and draws an assessment
// question. The rank advances regardless of how that question is later
// answered; the question is informational only. The assessment is drawn
// before the bump is persisted so a failed draw leaves the rank unchanged.
func (g *GameService) Promote(ctx context.Context, code, nickname string) (domain.GameSession, domain.Question, error) {
	code = NormalizeCode(code)
	session, ok, err := g.store.Session(ctx, code, nickname)
	if err != nil {
		return domain.GameSession{}, domain.Question{}, err
	}
	if !ok {
		return domain.GameSession{}, domain.Question{}, domain.ErrSessionNotFound
	}
	if !promotionEligible(&session) {
		return domain.GameSession{}, domain.Question{}, domain.ErrNotEligible
	}
	question, err := g.drawForStage(ctx, session.Stage)
	if err != nil {
		return domain.GameSession{}, domain.Question{}, err
	}
	promoted, err := g.mutate(ctx, code, nickname, promote)
	if err != nil {
		return domain.GameSession{}, domain.Question{}, err
	}
	return promoted, question, nil
}

// AdvanceStage moves to the next pipeline phase when the purity gate is met.
func (g *GameService) AdvanceStage(ctx context.Context, code, nickname string) (domain.GameSession, error) {
	return g.mutate(ctx, code, nickname, advanceStage)
}

// SubmitResult aggregates the session into a StudentResult and upserts it into
// the classroom roster. Submitting again replaces the nickname's prior entry.
func (g *GameService) SubmitResult(ctx context.Context, code, nickname string) (domain.StudentResult, error) {
	code = NormalizeCode(code)
	session, ok, err := g.store.Session(ctx, code, nickname)
	if err != nil {
		return domain.StudentResult{}, err
	}
	if !ok {
		return domain.StudentResult{}, domain.ErrSessionNotFound
	}

	result := summarize(nickname, session, g.now())

	roster, err := g.store.Roster(ctx, code)
	if err != nil {
		return domain.StudentResult{}, err
	}
	replaced := false
	for i := range roster {
		if roster[i].Nickname == nickname {
			roster[i] = result
			replaced = true
			break
		}
	}
	if !replaced {
		roster = append(roster, result)
	}
	if err := g.store.SaveRoster(ctx, code, roster); err != nil {
		return domain.StudentResult{}, err
	}
	return result, nil
}

// Wipe clears every stored record. Administrative reset only.
func (g *GameService) Wipe(ctx context.Context) error {
	return g.store.Wipe(ctx)
}
