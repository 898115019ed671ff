// Package journal records checkout sessions and their transitions in
// PostgreSQL, together with the outbox of order events.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chouseangly/my-app/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

const EventOrderPlaced = "order.placed"

var (
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	ErrSessionNotFound        = errors.New("checkout session not found")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type Session struct {
	ID             string
	UserID         string
	IdempotencyKey string
	Status         domain.CheckoutStatus
	PaymentMethod  domain.PaymentMethod
	CartSnapshot   []byte
	TotalAmount    string
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OutboxEvent struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(ctx context.Context, cred *Credentials) (*Repository, error) {
	conn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host, cred.Port, cred.User, cred.Password, cred.DBName)

	db, err := sql.Open("postgres", conn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// CreateSession inserts s in status EDITING. A duplicate idempotency key is
// rejected by the unique constraint.
func (r *Repository) CreateSession(ctx context.Context, s *Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.Status = domain.CheckoutStatusEditing
	snapshot := s.CartSnapshot
	if len(snapshot) == 0 {
		snapshot = []byte("{}")
	}
	total := s.TotalAmount
	if total == "" {
		total = "0"
	}

	query := `INSERT INTO checkout_sessions
		(id, user_id, idempotency_key, status, payment_method, cart_snapshot, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`
	// jsonb values go in as strings, lib/pq sends []byte as bytea
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.IdempotencyKey, s.Status, string(s.PaymentMethod), string(snapshot), total)
	if err != nil {
		return fmt.Errorf("failed to create checkout session: %w", err)
	}
	return nil
}

func (r *Repository) GetSessionByIdempotencyKey(ctx context.Context, key string) (*Session, error) {
	query := `SELECT id, user_id, idempotency_key, status, payment_method, cart_snapshot,
		total_amount::text, last_error, created_at, updated_at
		FROM checkout_sessions WHERE idempotency_key = $1`

	var s Session
	var status, method string
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&s.ID, &s.UserID, &s.IdempotencyKey, &status, &method, &s.CartSnapshot,
		&s.TotalAmount, &s.LastError, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIdempotencyKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}
	s.Status = domain.CheckoutStatus(status)
	s.PaymentMethod = domain.PaymentMethod(method)
	return &s, nil
}

// UpdateSessionStatus records a transition. lastError is stored as given, so
// a successful transition clears any earlier failure.
func (r *Repository) UpdateSessionStatus(ctx context.Context, id string, status domain.CheckoutStatus, lastError string) error {
	query := `UPDATE checkout_sessions SET status = $2, last_error = $3, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, lastError)
	if err != nil {
		return fmt.Errorf("failed to update checkout session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// CompleteSession stores the submitted snapshot, marks the session
// SUCCEEDED and writes the order.placed outbox event in one transaction.
func (r *Repository) CompleteSession(ctx context.Context, id string, snapshot []byte, totalAmount string, payload []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE checkout_sessions
		SET status = $2, cart_snapshot = $3, total_amount = $4, last_error = '', updated_at = NOW()
		WHERE id = $1`,
		id, domain.CheckoutStatusSucceeded, string(snapshot), totalAmount)
	if err != nil {
		return fmt.Errorf("failed to complete checkout session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (id, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		uuid.NewString(), id, EventOrderPlaced, string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetUnprocessedEvents returns up to limit events, oldest first.
func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox events: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	return nil
}
