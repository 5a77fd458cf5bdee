package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mindprobe/mindprobe-api/internal/interpret"
	"github.com/mindprobe/mindprobe-api/internal/scoring"
)

func seedStore(t *testing.T, def TestDefinition) Store {
	t.Helper()
	st := NewInMemoryStore(scoring.NewDefaultEngine())
	if err := st.PutTest(context.Background(), def); err != nil {
		t.Fatalf("put test: %v", err)
	}
	return st
}

func TestStartIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t, likertTest(2))

	a1, resumed, err := st.StartAttempt(ctx, "t1", "u1")
	if err != nil || resumed {
		t.Fatalf("first start: resumed=%v err=%v", resumed, err)
	}
	a2, resumed, err := st.StartAttempt(ctx, "t1", "u1")
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if !resumed || a2.ID != a1.ID {
		t.Fatalf("expected same open attempt back, got %q vs %q (resumed=%v)", a2.ID, a1.ID, resumed)
	}
}

func TestStartUnknownTest(t *testing.T) {
	st := NewInMemoryStore(scoring.NewDefaultEngine())
	_, _, err := st.StartAttempt(context.Background(), "nope", "u1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompleteScoresAndInterprets(t *testing.T) {
	ctx := context.Background()
	def := likertTest(2)
	def.Interpretation = interpret.Config{"overall": {
		{Min: 0, Max: 50, Interpretation: "Low"},
		{Min: 51, Max: 100, Interpretation: "High"},
	}}
	st := seedStore(t, def)

	a, _, err := st.StartAttempt(ctx, "t1", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	done, err := st.CompleteAttempt(ctx, a.ID, "u1", []Answer{
		{QuestionIndex: 1, Value: 3},
		{QuestionIndex: 0, Value: 5},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !done.Completed() {
		t.Fatalf("expected terminal attempt")
	}
	if done.Scores["total_score"].(int) != 8 || done.Scores["percentage"].(float64) != 80.0 {
		t.Fatalf("scores = %v", done.Scores)
	}
	if done.Interpretation["overall"] != "High" {
		t.Fatalf("interpretation = %v", done.Interpretation)
	}
	// answers come back ordered by question index
	if done.Answers[0].QuestionIndex != 0 || done.Answers[1].QuestionIndex != 1 {
		t.Fatalf("answers not ordered: %v", done.Answers)
	}
}

func TestCompleteExactlyOnce(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t, likertTest(2))

	a, _, _ := st.StartAttempt(ctx, "t1", "u1")
	answers := []Answer{{QuestionIndex: 0, Value: 5}, {QuestionIndex: 1, Value: 3}}
	first, err := st.CompleteAttempt(ctx, a.ID, "u1", answers)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	before, _ := json.Marshal(first)

	_, err = st.CompleteAttempt(ctx, a.ID, "u1", []Answer{
		{QuestionIndex: 0, Value: 1}, {QuestionIndex: 1, Value: 1},
	})
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}

	reloaded, err := st.GetAttempt(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	after, _ := json.Marshal(reloaded)
	if string(before) != string(after) {
		t.Fatalf("rejected resubmission mutated the attempt:\n%s\n%s", before, after)
	}
}

func TestCompleteRejectsNonOwner(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t, likertTest(1))

	a, _, _ := st.StartAttempt(ctx, "t1", "u1")
	_, err := st.CompleteAttempt(ctx, a.ID, "intruder", []Answer{{QuestionIndex: 0, Value: 3}})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	got, _ := st.GetAttempt(ctx, a.ID)
	if got.Completed() || got.Answers != nil {
		t.Fatalf("unauthorized complete must not mutate: %+v", got)
	}
}

func TestCompleteValidationFailureLeavesAttemptOpen(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t, likertTest(1))

	a, _, _ := st.StartAttempt(ctx, "t1", "u1")
	_, err := st.CompleteAttempt(ctx, a.ID, "u1", []Answer{{QuestionIndex: 0, Value: 6}})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	got, _ := st.GetAttempt(ctx, a.ID)
	if got.Completed() {
		t.Fatalf("attempt must stay open after validation failure")
	}

	// a corrected resubmission then succeeds
	if _, err := st.CompleteAttempt(ctx, a.ID, "u1", []Answer{{QuestionIndex: 0, Value: 5}}); err != nil {
		t.Fatalf("resubmit after fix: %v", err)
	}
}

func TestCompleteAfterCompletionAllowsNewStart(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t, likertTest(1))

	a, _, _ := st.StartAttempt(ctx, "t1", "u1")
	if _, err := st.CompleteAttempt(ctx, a.ID, "u1", []Answer{{QuestionIndex: 0, Value: 4}}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	b, resumed, err := st.StartAttempt(ctx, "t1", "u1")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if resumed || b.ID == a.ID {
		t.Fatalf("completed attempt is terminal; a new start must create a fresh attempt")
	}
}

func TestGetTestStripsConfig(t *testing.T) {
	ctx := context.Background()
	def := likertTest(1)
	def.Scoring = scoring.Config{"A": {Questions: []int{0}, Weight: 1}}
	def.Interpretation = interpret.Config{"A": {{Min: 0, Max: 100, Interpretation: "ok"}}}
	st := seedStore(t, def)

	public, err := st.GetTest(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if public.Scoring != nil || public.Interpretation != nil {
		t.Fatalf("taker view must not expose config: %+v", public)
	}
	full, err := st.GetTestAdmin(ctx, "t1")
	if err != nil || full.Scoring == nil {
		t.Fatalf("admin view lost config: %+v err=%v", full, err)
	}
}
