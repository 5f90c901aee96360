package app_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"silicon-lab-service/internal/app"
	"silicon-lab-service/internal/domain"
	"silicon-lab-service/internal/infra/memory"
)

type stubRand struct {
	fraction float64
	ints     []int
	pos      int
}

func (r *stubRand) Float64() float64 { return r.fraction }

func (r *stubRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[r.pos%len(r.ints)] % n
	r.pos++
	return v
}

func newTestService(t *testing.T, now time.Time, rnd app.Rand) (*app.GameService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(domain.DefaultQuestionBank()), 5*time.Minute)
	clock := func() time.Time { return now }
	if rnd == nil {
		rnd = &stubRand{fraction: 0.5}
	}
	return app.NewGameServiceWithClock(store, questions, clock, rnd), store
}

func TestCreateClassroomGeneratesCode(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	service, _ := newTestService(t, now, &stubRand{ints: []int{0, 1, 2, 3, 4}})

	classroom, err := service.CreateClassroom(ctx, "Chip Class 1", 4*time.Hour, 1000, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(classroom.Code, app.CodePrefix) {
		t.Fatalf("expected %s prefix, got %s", app.CodePrefix, classroom.Code)
	}
	if len(classroom.Code) != len(app.CodePrefix)+5 {
		t.Fatalf("expected 5 random characters, got %q", classroom.Code)
	}
	if classroom.Code != strings.ToUpper(classroom.Code) {
		t.Fatalf("code must be upper-case: %q", classroom.Code)
	}
	if !classroom.ExpireAt.Equal(now.Add(4 * time.Hour)) {
		t.Fatalf("unexpected expiry: %v", classroom.ExpireAt)
	}
	if classroom.Reward != domain.DefaultReward() {
		t.Fatalf("expected default reward, got %+v", classroom.Reward)
	}
}

func TestJoinValidation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	service, _ := newTestService(t, now, nil)

	if _, _, err := service.Join(ctx, "XN-NOPE1", "alice"); err != domain.ErrClassroomNotFound {
		t.Fatalf("expected ErrClassroomNotFound, got %v", err)
	}

	classroom, err := service.CreateClassroom(ctx, "Chip Class 1", -time.Hour, 1000, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := service.Join(ctx, classroom.Code, "alice"); err != domain.ErrClassroomExpired {
		t.Fatalf("expected ErrClassroomExpired, got %v", err)
	}
}

func TestJoinIsCaseInsensitiveAndReportsResume(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	service, _ := newTestService(t, now, nil)

	classroom, err := service.CreateClassroom(ctx, "Chip Class 1", 4*time.Hour, 1000, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	lower := strings.ToLower(classroom.Code)
	if _, resumed, err := service.Join(ctx, lower, "alice"); err != nil {
		t.Fatalf("join with lower-case code: %v", err)
	} else if resumed {
		t.Fatalf("no session yet, resumed must be false")
	}

	if _, err := service.Session(ctx, lower, "alice"); err != nil {
		t.Fatalf("session: %v", err)
	}
	if _, resumed, err := service.Join(ctx, lower, "alice"); err != nil {
		t.Fatalf("rejoin: %v", err)
	} else if !resumed {
		t.Fatalf("expected resumed=true after a session exists")
	}
}

func TestSessionSeededFromClassroom(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	service, _ := newTestService(t, now, nil)

	classroom, _ := service.CreateClassroom(ctx, "Chip Class 1", 4*time.Hour, 1500, nil)
	session, err := service.Session(ctx, classroom.Code, "alice")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if session.Stage != 1 || session.LevelIndex != 0 || session.Purity != 0 {
		t.Fatalf("unexpected fresh session: %+v", session)
	}
	if session.Points != 1500 {
		t.Fatalf("expected initial points 1500, got %d", session.Points)
	}
	if session.Inventory != (domain.Inventory{}) {
		t.Fatalf("expected empty inventory, got %+v", session.Inventory)
	}
	if !session.StartTime.Equal(now) {
		t.Fatalf("expected start time from clock, got %v", session.StartTime)
	}
}

func TestMutationsRequireSession(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, time.Now(), nil)

	if _, err := service.BuyMaterials(ctx, "XN-NOPE1", "alice"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDrawQuestionRespectsStageGate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rnd := &stubRand{ints: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}}
	service, _ := newTestService(t, now, rnd)

	classroom, _ := service.CreateClassroom(ctx, "Chip Class 1", 4*time.Hour, 1000, nil)
	if _, err := service.Session(ctx, classroom.Code, "alice"); err != nil {
		t.Fatalf("session: %v", err)
	}

	// a stage-1 session must only ever see stage-1 questions
	for i := 0; i < 10; i++ {
		question, err := service.DrawQuestion(ctx, classroom.Code, "alice")
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		if question.Stage != 1 {
			t.Fatalf("stage-1 session drew stage-%d question %d", question.Stage, question.ID)
		}
	}
}

func TestSubmitAnswerAppliesClassroomReward(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	reward := domain.Reward{CorrectExp: 2, StreakN: 3, StreakBonusPoints: 100}
	service, _ := newTestService(t, now, nil)

	classroom, _ := service.CreateClassroom(ctx, "Chip Class 1", 4*time.Hour, 0, &reward)
	if _, err := service.Session(ctx, classroom.Code, "alice"); err != nil {
		t.Fatalf("session: %v", err)
	}

	// question 1: correct option is index 1
	session, outcome, err := service.SubmitAnswer(ctx, classroom.Code, "alice", 1, 1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !outcome.Correct || outcome.ExpAwarded != 2 || outcome.StreakBonus != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if outcome.Explanation == "" {
		t.Fatalf("expected explanation with the outcome")
	}
	if session.Exp != 2 || session.Streak != 1 {
		t.Fatalf("unexpected session after correct answer: exp=%d streak=%d", session.Exp, session.Streak)
	}

	// wrong answer resets the streak
	session, outcome, err = service.SubmitAnswer(ctx, classroom.Code, "alice", 1, 0)
	if err != nil {
		t.Fatalf("submit wrong: %v", err)
	}
	if outcome.Correct || session.Streak != 0 {
		t.Fatalf("expected reset streak, got %+v / streak=%d", outcome, session.Streak)
	}

	// three straight correct answers trigger the configured bonus
	for i := 0; i < 3; i++ {
		session, outcome, err = service.SubmitAnswer(ctx, classroom.Code, "alice", 1, 1)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if outcome.StreakBonus != 100 {
		t.Fatalf("expected streak bonus 100, got %d", outcome.StreakBonus)
	}
	if session.Points != 100 {
		t.Fatalf("expected 100 bonus points, got %d", session.Points)
	}

	if _, _, err := service.SubmitAnswer(ctx, classroom.Code, "alice", 999, 0); err != domain.ErrQuestionNotFound {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestPromoteAdvancesRankAndDrawsAssessment(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	reward := domain.Reward{CorrectExp: 10, StreakN: 99, StreakBonusPoints: 0}
	service, _ := newTestService(t, now, nil)

	classroom, _ := service.CreateClassroom(ctx, "Chip Class 1", 4*time.Hour, 0, &reward)
	if _, err := service.Session(ctx, classroom.Code, "alice"); err != nil {
		t.Fatalf("session: %v", err)
	}

	if eligible, err := service.PromotionEligible(ctx, classroom.Code, "alice"); err != nil || eligible {
		t.Fatalf("fresh session eligible=%v err=%v", eligible, err)
	}
	if _, _, err := service.Promote(ctx, classroom.Code, "alice"); err != domain.ErrNotEligible {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}

	// one correct answer at 10 exp clears the assistant threshold
	if _, _, err := service.SubmitAnswer(ctx, classroom.Code, "alice", 1, 1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	session, assessment, err := service.Promote(ctx, classroom.Code, "alice")
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if session.LevelIndex != 1 {
		t.Fatalf("expected junior rank, got %d", session.LevelIndex)
	}
	if assessment.ID == 0 {
		t.Fatalf("expected an assessment question")
	}
}

func TestSubmitResultDefaultsAndUpsert(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	service, _ := newTestService(t, now, nil)

	classroom, _ := service.CreateClassroom(ctx, "Chip Class 1", 4*time.Hour, 1000, nil)
	if _, err := service.Session(ctx, classroom.Code, "alice"); err != nil {
		t.Fatalf("session: %v", err)
	}

	// no answers, no manufacture attempts
	result, err := service.SubmitResult(ctx, classroom.Code, "alice")
	if err != nil {
		t.Fatalf("submit result: %v", err)
	}
	if result.Accuracy != 0 {
		t.Fatalf("expected accuracy 0 with no answers, got %v", result.Accuracy)
	}
	if result.YieldRate != 100 {
		t.Fatalf("expected yield 100 with no attempts, got %v", result.YieldRate)
	}
	if result.FinishedAt != nil {
		t.Fatalf("unfinished session must not carry finishedAt")
	}
	if !result.LastSubmitAt.Equal(now) {
		t.Fatalf("unexpected lastSubmitAt: %v", result.LastSubmitAt)
	}

	// answer one question, resubmit: entry replaced, not appended
	if _, _, err := service.SubmitAnswer(ctx, classroom.Code, "alice", 1, 1); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if _, err := service.SubmitResult(ctx, classroom.Code, "alice"); err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	roster, err := service.Roster(ctx, classroom.Code)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("expected a single roster entry, got %d", len(roster))
	}
	if roster[0].Accuracy != 100 {
		t.Fatalf("expected updated accuracy 100, got %v", roster[0].Accuracy)
	}
}

func TestSubmitAnswerRejectsQuestionAboveStage(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	service, _ := newTestService(t, now, nil)

	classroom, _ := service.CreateClassroom(ctx, "Chip Class 1", 4*time.Hour, 0, nil)
	if _, err := service.Session(ctx, classroom.Code, "alice"); err != nil {
		t.Fatalf("session: %v", err)
	}

	// question 11 is stage 3; a stage-1 session must not be able to farm it
	if _, _, err := service.SubmitAnswer(ctx, classroom.Code, "alice", 11, 1); err != domain.ErrStageLocked {
		t.Fatalf("expected ErrStageLocked, got %v", err)
	}

	session, err := service.Session(ctx, classroom.Code, "alice")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if session.TotalAnswered != 0 || session.Exp != 0 {
		t.Fatalf("rejected answer must not touch counters: %+v", session)
	}
}

// flakyQuestions fails the bank lookup on demand.
type flakyQuestions struct {
	inner app.QuestionRepository
	fail  bool
}

func (f *flakyQuestions) Questions(ctx context.Context) ([]domain.Question, error) {
	if f.fail {
		return nil, errors.New("question bank unavailable")
	}
	return f.inner.Questions(ctx)
}

func TestPromoteKeepsRankWhenAssessmentDrawFails(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	questions := &flakyQuestions{
		inner: memory.NewQuestionRepository(memory.NewStaticQuestionLoader(domain.DefaultQuestionBank()), time.Minute),
	}
	clock := func() time.Time { return now }
	service := app.NewGameServiceWithClock(store, questions, clock, &stubRand{fraction: 0.5})

	reward := domain.Reward{CorrectExp: 10, StreakN: 99, StreakBonusPoints: 0}
	classroom, _ := service.CreateClassroom(ctx, "Chip Class 1", 4*time.Hour, 0, &reward)
	if _, err := service.Session(ctx, classroom.Code, "alice"); err != nil {
		t.Fatalf("session: %v", err)
	}
	if _, _, err := service.SubmitAnswer(ctx, classroom.Code, "alice", 1, 1); err != nil {
		t.Fatalf("submit: %v", err)
	}

	questions.fail = true
	if _, _, err := service.Promote(ctx, classroom.Code, "alice"); err == nil {
		t.Fatalf("expected promote to fail with the bank down")
	}
	session, err := service.Session(ctx, classroom.Code, "alice")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if session.LevelIndex != 0 {
		t.Fatalf("rank must not advance when the assessment draw fails, got %d", session.LevelIndex)
	}

	questions.fail = false
	session, _, err = service.Promote(ctx, classroom.Code, "alice")
	if err != nil {
		t.Fatalf("promote after recovery: %v", err)
	}
	if session.LevelIndex != 1 {
		t.Fatalf("expected junior rank after recovery, got %d", session.LevelIndex)
	}
}

func TestConcurrentStudentsShareOneService(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(domain.DefaultQuestionBank()), time.Minute)
	service := app.NewGameService(store, questions)

	classroom, err := service.CreateClassroom(ctx, "Chip Class 1", 4*time.Hour, 100000, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const rounds = 25
	var wg sync.WaitGroup
	for _, nickname := range []string{"alice", "bob"} {
		nickname := nickname
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.Session(ctx, classroom.Code, nickname); err != nil {
				t.Errorf("%s session: %v", nickname, err)
				return
			}
			for i := 0; i < rounds; i++ {
				if _, err := service.DrawQuestion(ctx, classroom.Code, nickname); err != nil {
					t.Errorf("%s draw %d: %v", nickname, i, err)
					return
				}
				if _, err := service.BuyMaterials(ctx, classroom.Code, nickname); err != nil {
					t.Errorf("%s buy %d: %v", nickname, i, err)
					return
				}
				if _, err := service.StartTask(ctx, classroom.Code, nickname, domain.TaskPurify); err != nil {
					t.Errorf("%s start %d: %v", nickname, i, err)
					return
				}
				if _, _, err := service.Advance(ctx, classroom.Code, nickname, 600); err != nil {
					t.Errorf("%s advance %d: %v", nickname, i, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	for _, nickname := range []string{"alice", "bob"} {
		session, err := service.Session(ctx, classroom.Code, nickname)
		if err != nil {
			t.Fatalf("%s session: %v", nickname, err)
		}
		if session.Inventory.CrudeSilicon != rounds {
			t.Fatalf("%s: expected %d purify completions, got %d", nickname, rounds, session.Inventory.CrudeSilicon)
		}
		if session.Purity < 80 || session.Purity >= 90 {
			t.Fatalf("%s: purity out of roll range: %v", nickname, session.Purity)
		}
	}
}

func TestTaskLifecycleThroughService(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	service, _ := newTestService(t, now, &stubRand{fraction: 0.5})

	classroom, _ := service.CreateClassroom(ctx, "Chip Class 1", 4*time.Hour, 1000, nil)
	if _, err := service.Session(ctx, classroom.Code, "alice"); err != nil {
		t.Fatalf("session: %v", err)
	}

	if _, err := service.BuyMaterials(ctx, classroom.Code, "alice"); err != nil {
		t.Fatalf("buy: %v", err)
	}
	session, err := service.StartTask(ctx, classroom.Code, "alice", domain.TaskPurify)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.Task == nil {
		t.Fatalf("expected an armed task")
	}

	// the countdown survives a reload: it is part of the persisted session
	session, err = service.Session(ctx, classroom.Code, "alice")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if session.Task == nil || session.Task.Kind != domain.TaskPurify {
		t.Fatalf("task must persist across reloads, got %+v", session.Task)
	}

	session, completed, err := service.Advance(ctx, classroom.Code, "alice", 600)
	if err != nil || !completed {
		t.Fatalf("advance: completed=%v err=%v", completed, err)
	}
	if session.Inventory.CrudeSilicon != 1 || session.Purity != 85 {
		t.Fatalf("unexpected completion state: %+v purity=%v", session.Inventory, session.Purity)
	}
}
