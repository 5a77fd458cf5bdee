package assessment

import "context"

type ListOpts struct {
	Q          string // substring match on title
	CategoryID string
	Limit      int
	Offset     int
}

type ResultListOpts struct {
	UserID string
	TestID string
	Limit  int
	Offset int
}

type Store interface {
	PutCategory(ctx context.Context, c Category) error
	GetCategory(ctx context.Context, id string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	DeleteCategory(ctx context.Context, id string) error

	PutTest(ctx context.Context, t TestDefinition) error
	GetTest(ctx context.Context, id string) (TestDefinition, error)      // taker-safe (config stripped)
	GetTestAdmin(ctx context.Context, id string) (TestDefinition, error) // full definition
	ListTests(ctx context.Context, opts ListOpts) ([]TestDefinition, error)
	DeleteTest(ctx context.Context, id string) error

	// StartAttempt returns the open attempt for (user, test), creating one if
	// none exists. The bool reports whether an existing attempt was resumed.
	StartAttempt(ctx context.Context, testID, userID string) (Attempt, bool, error)

	// CompleteAttempt validates and whole-replaces the answer set, scores and
	// interprets it, and marks the attempt terminal — exactly once.
	CompleteAttempt(ctx context.Context, attemptID, callerUserID string, answers []Answer) (Attempt, error)

	GetAttempt(ctx context.Context, attemptID string) (Attempt, error)
	ListResults(ctx context.Context, opts ResultListOpts) ([]Attempt, error)
}
