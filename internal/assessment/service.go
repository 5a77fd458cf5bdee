package assessment

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindprobe/mindprobe-api/internal/interpret"
	"github.com/mindprobe/mindprobe-api/internal/scoring"
)

type memoryStore struct {
	mu         sync.RWMutex
	engine     scoring.Engine
	categories map[string]Category
	tests      map[string]TestDefinition
	attempts   map[string]Attempt
}

// NewInMemoryStore backs dev mode and unit tests.
func NewInMemoryStore(engine scoring.Engine) Store {
	return &memoryStore{
		engine:     engine,
		categories: map[string]Category{},
		tests:      map[string]TestDefinition{},
		attempts:   map[string]Attempt{},
	}
}

func (m *memoryStore) PutCategory(_ context.Context, c Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
	return nil
}

func (m *memoryStore) GetCategory(_ context.Context, id string) (Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (m *memoryStore) ListCategories(_ context.Context) ([]Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryStore) DeleteCategory(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *memoryStore) PutTest(_ context.Context, t TestDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().Unix()
	}
	m.tests[t.ID] = t
	return nil
}

func (m *memoryStore) GetTest(ctx context.Context, id string) (TestDefinition, error) {
	t, err := m.GetTestAdmin(ctx, id)
	if err != nil {
		return TestDefinition{}, err
	}
	return stripConfig(t), nil
}

func (m *memoryStore) GetTestAdmin(_ context.Context, id string) (TestDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return TestDefinition{}, ErrNotFound
	}
	return t, nil
}

func (m *memoryStore) ListTests(_ context.Context, opts ListOpts) ([]TestDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []TestDefinition{}
	for _, t := range m.tests {
		if opts.CategoryID != "" && t.CategoryID != opts.CategoryID {
			continue
		}
		if opts.Q != "" && !containsFold(t.Title, opts.Q) {
			continue
		}
		out = append(out, stripConfig(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return paginate(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) DeleteTest(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tests[id]; !ok {
		return ErrNotFound
	}
	delete(m.tests, id)
	return nil
}

func (m *memoryStore) StartAttempt(_ context.Context, testID, userID string) (Attempt, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tests[testID]; !ok {
		return Attempt{}, false, ErrNotFound
	}
	for _, a := range m.attempts {
		if a.UserID == userID && a.TestID == testID && !a.Completed() {
			return a, true, nil
		}
	}
	a := Attempt{
		ID:        uuid.NewString(),
		UserID:    userID,
		TestID:    testID,
		StartedAt: time.Now().Unix(),
	}
	m.attempts[a.ID] = a
	return a, false, nil
}

func (m *memoryStore) CompleteAttempt(_ context.Context, attemptID, callerUserID string, answers []Answer) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrNotFound
	}
	if a.UserID != callerUserID {
		return Attempt{}, ErrUnauthorized
	}
	if a.Completed() {
		return Attempt{}, ErrAlreadyCompleted
	}
	t, ok := m.tests[a.TestID]
	if !ok {
		return Attempt{}, ErrNotFound
	}
	if err := ValidateAnswers(t, answers); err != nil {
		return Attempt{}, err
	}

	// whole-replace, never merge
	sorted := append([]Answer(nil), answers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].QuestionIndex < sorted[j].QuestionIndex })
	a.Answers = sorted

	a.Scores = m.engine.Score(string(t.Type), t.Scoring, toScoringAnswers(sorted))
	a.Interpretation = interpret.Interpret(t.Interpretation, a.Scores)
	now := time.Now().Unix()
	a.CompletedAt = &now
	m.attempts[attemptID] = a
	return a, nil
}

func (m *memoryStore) GetAttempt(_ context.Context, attemptID string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrNotFound
	}
	return a, nil
}

func (m *memoryStore) ListResults(_ context.Context, opts ResultListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Attempt{}
	for _, a := range m.attempts {
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		if opts.TestID != "" && a.TestID != opts.TestID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return completedOrZero(out[i]) > completedOrZero(out[j])
	})
	return paginate(out, opts.Limit, opts.Offset), nil
}

func completedOrZero(a Attempt) int64 {
	if a.CompletedAt != nil {
		return *a.CompletedAt
	}
	return 0
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func paginate[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return []T{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
