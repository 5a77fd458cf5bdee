package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mindprobe/mindprobe-api/internal/interpret"
	"github.com/mindprobe/mindprobe-api/internal/scoring"
	syncx "github.com/mindprobe/mindprobe-api/internal/sync"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	engine scoring.Engine
	events *syncx.EventRepo // optional
}

func NewSQLStore(db *sql.DB, driver string, engine scoring.Engine, events *syncx.EventRepo) *SQLStore {
	return &SQLStore{db: db, driver: driver, engine: engine, events: events}
}

func (s *SQLStore) PutCategory(ctx context.Context, c Category) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO categories (id,name,description,created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, description=EXCLUDED.description`,
		c.ID, c.Name, c.Description, time.Now().Unix())
	return err
}

func (s *SQLStore) GetCategory(ctx context.Context, id string) (Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,description,created_at FROM categories WHERE id=$1`, id)
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Category{}, ErrNotFound
		}
		return Category{}, err
	}
	return c, nil
}

func (s *SQLStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,description,created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) PutTest(ctx context.Context, t TestDefinition) error {
	qj, err := json.Marshal(t.Questions)
	if err != nil {
		return err
	}
	sj, ij := "", ""
	if len(t.Scoring) > 0 {
		b, err := json.Marshal(t.Scoring)
		if err != nil {
			return err
		}
		sj = string(b)
	}
	if len(t.Interpretation) > 0 {
		b, err := json.Marshal(t.Interpretation)
		if err != nil {
			return err
		}
		ij = string(b)
	}
	var catID any
	if t.CategoryID != "" {
		catID = t.CategoryID
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tests
		(id,category_id,title,description,test_type,time_limit_minutes,questions_json,scoring_json,interpretation_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET category_id=EXCLUDED.category_id, title=EXCLUDED.title,
			description=EXCLUDED.description, test_type=EXCLUDED.test_type,
			time_limit_minutes=EXCLUDED.time_limit_minutes, questions_json=EXCLUDED.questions_json,
			scoring_json=EXCLUDED.scoring_json, interpretation_json=EXCLUDED.interpretation_json`,
		t.ID, catID, t.Title, t.Description, string(t.Type), t.TimeLimitMinutes, string(qj), sj, ij, time.Now().Unix())
	return err
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (TestDefinition, error) {
	t, err := s.GetTestAdmin(ctx, id)
	if err != nil {
		return TestDefinition{}, err
	}
	return stripConfig(t), nil
}

func (s *SQLStore) GetTestAdmin(ctx context.Context, id string) (TestDefinition, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,category_id,title,description,test_type,time_limit_minutes,
		questions_json,scoring_json,interpretation_json,created_at FROM tests WHERE id=$1`, id)
	return scanTest(row)
}

type rowScanner interface{ Scan(dest ...any) error }

func scanTest(row rowScanner) (TestDefinition, error) {
	var t TestDefinition
	var catID sql.NullString
	var limit sql.NullInt64
	var qjson, sjson, ijson string
	err := row.Scan(&t.ID, &catID, &t.Title, &t.Description, (*string)(&t.Type), &limit, &qjson, &sjson, &ijson, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TestDefinition{}, ErrNotFound
		}
		return TestDefinition{}, err
	}
	t.CategoryID = catID.String
	t.TimeLimitMinutes = int(limit.Int64)
	if err := json.Unmarshal([]byte(qjson), &t.Questions); err != nil {
		return TestDefinition{}, fmt.Errorf("test %s: questions_json: %w", t.ID, err)
	}
	if sjson != "" {
		if err := json.Unmarshal([]byte(sjson), &t.Scoring); err != nil {
			return TestDefinition{}, fmt.Errorf("test %s: scoring_json: %w", t.ID, err)
		}
	}
	if ijson != "" {
		if err := json.Unmarshal([]byte(ijson), &t.Interpretation); err != nil {
			return TestDefinition{}, fmt.Errorf("test %s: interpretation_json: %w", t.ID, err)
		}
	}
	return t, nil
}

func (s *SQLStore) ListTests(ctx context.Context, opts ListOpts) ([]TestDefinition, error) {
	q := `SELECT id,category_id,title,description,test_type,time_limit_minutes,
		questions_json,scoring_json,interpretation_json,created_at FROM tests WHERE 1=1`
	args := []any{}
	if opts.Q != "" {
		args = append(args, "%"+opts.Q+"%")
		q += fmt.Sprintf(` AND title LIKE $%d`, len(args))
	}
	if opts.CategoryID != "" {
		args = append(args, opts.CategoryID)
		q += fmt.Sprintf(` AND category_id=$%d`, len(args))
	}
	q += ` ORDER BY created_at DESC`
	q, args = appendPagination(q, args, s.driver, opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TestDefinition{}
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, stripConfig(t))
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteTest(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// appendPagination adds LIMIT/OFFSET clauses. A LIMIT clause is always emitted
// when an offset is requested: sqlite rejects OFFSET without LIMIT.
func appendPagination(q string, args []any, driver string, limit, offset int) (string, []any) {
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	} else if offset > 0 {
		if driver == "postgres" {
			q += ` LIMIT ALL`
		} else {
			q += ` LIMIT -1`
		}
	}
	if offset > 0 {
		args = append(args, offset)
		q += fmt.Sprintf(` OFFSET $%d`, len(args))
	}
	return q, args
}

func (s *SQLStore) StartAttempt(ctx context.Context, testID, userID string) (Attempt, bool, error) {
	if a, err := s.openAttempt(ctx, testID, userID); err == nil {
		return a, true, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, false, err
	}

	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM tests WHERE id=$1`, testID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, false, ErrNotFound
		}
		return Attempt{}, false, err
	}

	a := Attempt{ID: uuid.NewString(), UserID: userID, TestID: testID, StartedAt: time.Now().Unix()}
	_, err := s.db.ExecContext(ctx, `INSERT INTO test_results (id,user_id,test_id,started_at)
		VALUES ($1,$2,$3,$4)`, a.ID, a.UserID, a.TestID, a.StartedAt)
	if err != nil {
		// a concurrent start may have hit the open-attempt unique index first
		if existing, selErr := s.openAttempt(ctx, testID, userID); selErr == nil {
			return existing, true, nil
		}
		return Attempt{}, false, err
	}
	return a, false, nil
}

func (s *SQLStore) openAttempt(ctx context.Context, testID, userID string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,user_id,test_id,started_at
		FROM test_results WHERE user_id=$1 AND test_id=$2 AND completed_at IS NULL`, userID, testID)
	var a Attempt
	if err := row.Scan(&a.ID, &a.UserID, &a.TestID, &a.StartedAt); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) CompleteAttempt(ctx context.Context, attemptID, callerUserID string, answers []Answer) (Attempt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Attempt{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var ownerID, testID string
	var completedAt sql.NullInt64
	row := tx.QueryRowContext(ctx, `SELECT user_id,test_id,completed_at FROM test_results WHERE id=$1`, attemptID)
	if err = row.Scan(&ownerID, &testID, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return Attempt{}, err
	}
	if ownerID != callerUserID {
		err = ErrUnauthorized
		return Attempt{}, err
	}
	if completedAt.Valid {
		err = ErrAlreadyCompleted
		return Attempt{}, err
	}

	var t TestDefinition
	t, err = scanTest(tx.QueryRowContext(ctx, `SELECT id,category_id,title,description,test_type,time_limit_minutes,
		questions_json,scoring_json,interpretation_json,created_at FROM tests WHERE id=$1`, testID))
	if err != nil {
		return Attempt{}, err
	}
	if err = ValidateAnswers(t, answers); err != nil {
		return Attempt{}, err
	}

	// whole-replace the answer set; a prior partial save is discarded
	if _, err = tx.ExecContext(ctx, `DELETE FROM test_answers WHERE test_result_id=$1`, attemptID); err != nil {
		return Attempt{}, err
	}
	for _, a := range answers {
		value := sql.NullInt64{}
		text := sql.NullString{}
		if t.Type == TypeMultipleChoice {
			text = sql.NullString{String: a.Text, Valid: true}
		} else {
			value = sql.NullInt64{Int64: int64(a.Value), Valid: true}
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO test_answers (test_result_id,question_index,answer_value,answer_text)
			VALUES ($1,$2,$3,$4)`, attemptID, a.QuestionIndex, value, text); err != nil {
			return Attempt{}, err
		}
	}

	scores := s.engine.Score(string(t.Type), t.Scoring, toScoringAnswers(answers))
	interpretation := interpret.Interpret(t.Interpretation, scores)

	var sj, ij []byte
	if sj, err = json.Marshal(scores); err != nil {
		return Attempt{}, err
	}
	if ij, err = json.Marshal(interpretation); err != nil {
		return Attempt{}, err
	}

	now := time.Now().Unix()
	var res sql.Result
	res, err = tx.ExecContext(ctx, `UPDATE test_results
		SET scores_json=$1, interpretation_json=$2, completed_at=$3
		WHERE id=$4 AND completed_at IS NULL`,
		string(sj), string(ij), now, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrConcurrentModification
		return Attempt{}, err
	}

	if s.events != nil {
		payload, _ := json.Marshal(map[string]any{
			"attempt_id": attemptID, "test_id": testID, "user_id": ownerID, "completed_at": now,
		})
		if err = s.events.AppendTx(ctx, tx, syncx.Event{
			Type: syncx.TypeAttemptCompleted, Key: attemptID, DataJSON: string(payload),
		}); err != nil {
			return Attempt{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return Attempt{}, err
	}
	return s.GetAttempt(ctx, attemptID)
}

func (s *SQLStore) GetAttempt(ctx context.Context, attemptID string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,user_id,test_id,scores_json,interpretation_json,started_at,completed_at
		FROM test_results WHERE id=$1`, attemptID)
	a, err := scanAttempt(row)
	if err != nil {
		return Attempt{}, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT question_index,answer_value,answer_text
		FROM test_answers WHERE test_result_id=$1 ORDER BY question_index`, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var ans Answer
		var value sql.NullInt64
		var text sql.NullString
		if err := rows.Scan(&ans.QuestionIndex, &value, &text); err != nil {
			return Attempt{}, err
		}
		ans.Value = int(value.Int64)
		ans.Text = text.String
		a.Answers = append(a.Answers, ans)
	}
	return a, rows.Err()
}

func scanAttempt(row rowScanner) (Attempt, error) {
	var a Attempt
	var sjson, ijson sql.NullString
	var completedAt sql.NullInt64
	if err := row.Scan(&a.ID, &a.UserID, &a.TestID, &sjson, &ijson, &a.StartedAt, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrNotFound
		}
		return Attempt{}, err
	}
	if completedAt.Valid {
		v := completedAt.Int64
		a.CompletedAt = &v
	}
	if sjson.Valid && sjson.String != "" {
		if err := json.Unmarshal([]byte(sjson.String), &a.Scores); err != nil {
			return Attempt{}, fmt.Errorf("attempt %s: scores_json: %w", a.ID, err)
		}
	}
	if ijson.Valid && ijson.String != "" {
		if err := json.Unmarshal([]byte(ijson.String), &a.Interpretation); err != nil {
			return Attempt{}, fmt.Errorf("attempt %s: interpretation_json: %w", a.ID, err)
		}
	}
	return a, nil
}

func (s *SQLStore) ListResults(ctx context.Context, opts ResultListOpts) ([]Attempt, error) {
	q := `SELECT id,user_id,test_id,scores_json,interpretation_json,started_at,completed_at
		FROM test_results WHERE 1=1`
	args := []any{}
	if opts.UserID != "" {
		args = append(args, opts.UserID)
		q += fmt.Sprintf(` AND user_id=$%d`, len(args))
	}
	if opts.TestID != "" {
		args = append(args, opts.TestID)
		q += fmt.Sprintf(` AND test_id=$%d`, len(args))
	}
	// open attempts (NULL completed_at) sort last on both drivers
	q += ` ORDER BY COALESCE(completed_at, 0) DESC`
	q, args = appendPagination(q, args, s.driver, opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
