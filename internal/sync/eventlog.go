package syncx

import (
	"context"
	"database/sql"
	"time"
)

const TypeAttemptCompleted = "AttemptCompleted"

type Event struct {
	SiteID   string
	Type     string
	Key      string // natural key: attemptID
	DataJSON string
}

// Execer lets Append run against *sql.DB or *sql.Tx, so attempt completion
// can log its event inside the same transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	return r.AppendTx(ctx, r.db, e)
}

func (r *EventRepo) AppendTx(ctx context.Context, ex Execer, e Event) error {
	site := e.SiteID
	if site == "" {
		site = "local"
	}
	_, err := ex.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		site, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}
