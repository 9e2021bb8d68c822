package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/AaronLay10/SentientSignals/internal/config"
)

// EventRow represents an event stored in Postgres.
type EventRow struct {
	EventID   int64                  `json:"event_id"`
	Timestamp time.Time              `json:"ts"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   *string                `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	City      string                 `json:"city"`
}

// PlanRow is a stored timing or green-wave plan.
type PlanRow struct {
	PlanID    string          `json:"plan_id"`
	Kind      string          `json:"kind"`
	Subject   string          `json:"subject"`
	Label     string          `json:"label"`
	CreatedAt time.Time       `json:"created_at"`
	Body      json.RawMessage `json:"plan"`
}

// Plan kinds.
const (
	KindTiming    = "timing"
	KindGreenWave = "greenwave"
)

// Client manages the Postgres connection for events and plans of one city.
type Client struct {
	db   *sql.DB
	city string
}

// New creates a new Postgres client using environment variables.
// Returns an error if the database is unreachable; callers run without
// persistence in that case.
func New(city string) (*Client, error) {
	host := getEnv("PGHOST", "127.0.0.1")
	port := getEnv("PGPORT", "5432")
	user := getEnv("PGUSER", "signals")
	dbname := getEnv("PGDATABASE", "signals")
	password, err := config.ResolveSecret("PGPASSWORD")
	if err != nil {
		return nil, err
	}

	var connStr string
	if password != "" {
		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname)
	} else {
		connStr = fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
			host, port, user, dbname)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	client := &Client{
		db:   db,
		city: city,
	}

	if err := client.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return client, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func (c *Client) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS events (
			event_id   BIGSERIAL PRIMARY KEY,
			ts         TIMESTAMPTZ NOT NULL,
			level      TEXT NOT NULL,
			event      TEXT NOT NULL,
			msg        TEXT,
			fields     JSONB,
			city       TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_events_city ON events(city);

		CREATE TABLE IF NOT EXISTS signal_plans (
			plan_id    UUID PRIMARY KEY,
			kind       TEXT NOT NULL,
			subject    TEXT NOT NULL,
			label      TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			body       JSONB NOT NULL,
			city       TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_signal_plans_subject ON signal_plans(city, kind, subject, created_at DESC);
	`
	_, err := c.db.Exec(query)
	return err
}

// Append inserts an event into the database.
func (c *Client) Append(ts time.Time, level, event, msg string, fields map[string]interface{}) error {
	var fieldsJSON []byte
	var err error
	if fields != nil {
		fieldsJSON, err = json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}
	}

	var msgPtr *string
	if msg != "" {
		msgPtr = &msg
	}

	query := `
		INSERT INTO events (ts, level, event, msg, fields, city)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = c.db.Exec(query, ts, level, event, msgPtr, fieldsJSON, c.city)
	return err
}

// Query returns the last N events from the database in descending order by timestamp.
func (c *Client) Query(limit int) ([]EventRow, error) {
	limit = clampLimit(limit)

	query := `
		SELECT event_id, ts, level, event, msg, fields, city
		FROM events
		WHERE city = $1
		ORDER BY ts DESC
		LIMIT $2
	`
	rows, err := c.db.Query(query, c.city, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		var fieldsJSON []byte
		var msg sql.NullString

		if err := rows.Scan(&e.EventID, &e.Timestamp, &e.Level, &e.Event, &msg, &fieldsJSON, &e.City); err != nil {
			return nil, err
		}

		if msg.Valid {
			e.Message = &msg.String
		}
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
			}
		}

		events = append(events, e)
	}

	return events, rows.Err()
}

// SavePlan stores a computed plan. subject is the intersection ID for timing
// plans and the corridor name for green waves; label is the strategy or status.
func (c *Client) SavePlan(ctx context.Context, kind, planID, subject, label string, createdAt time.Time, plan interface{}) error {
	body, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	query := `
		INSERT INTO signal_plans (plan_id, kind, subject, label, created_at, body, city)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (plan_id) DO NOTHING
	`
	_, err = c.db.ExecContext(ctx, query, planID, kind, subject, label, createdAt, body, c.city)
	return err
}

// RecentPlans returns the newest plans of one kind for a subject. An empty
// subject matches every subject.
func (c *Client) RecentPlans(ctx context.Context, kind, subject string, limit int) ([]PlanRow, error) {
	limit = clampLimit(limit)

	query := `
		SELECT plan_id, kind, subject, label, created_at, body
		FROM signal_plans
		WHERE city = $1 AND kind = $2 AND ($3 = '' OR subject = $3)
		ORDER BY created_at DESC
		LIMIT $4
	`
	rows, err := c.db.QueryContext(ctx, query, c.city, kind, subject, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []PlanRow
	for rows.Next() {
		var p PlanRow
		var body []byte
		if err := rows.Scan(&p.PlanID, &p.Kind, &p.Subject, &p.Label, &p.CreatedAt, &body); err != nil {
			return nil, err
		}
		p.Body = json.RawMessage(body)
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	if limit > 10000 {
		return 10000
	}
	return limit
}
