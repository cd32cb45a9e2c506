package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	_ "modernc.org/sqlite"             // pure-Go sqlite driver
)

//go:embed migrations
var migrationsFS embed.FS

type dialect string

const (
	dialectSQLite   dialect = "sqlite"
	dialectPostgres dialect = "postgres"
)

// Store wraps the SQL connection for the bills and travel_plans tables.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// DB returns the underlying connection for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// Open connects to databaseURL, picks the driver from the URL scheme
// (postgres:// selects pgx, anything else the embedded sqlite driver) and
// applies pending migrations.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	d := dialectSQLite
	driverName := "sqlite"
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		d = dialectPostgres
		driverName = "pgx"
	}

	db, err := sql.Open(driverName, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db, d); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db, dialect: d}, nil
}

// runMigrations applies the embedded migration files for the dialect.
func runMigrations(db *sql.DB, d dialect) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations/"+string(d))
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	var drv database.Driver
	switch d {
	case dialectPostgres:
		drv, err = migratepg.WithInstance(db, &migratepg.Config{})
	default:
		drv, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("failed to create %s migrate driver: %w", d, err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "tripchat", drv)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Close only the source driver; closing the migrate instance would also
	// close the shared *sql.DB.
	if err := sourceDriver.Close(); err != nil {
		return fmt.Errorf("failed to close migration source: %w", err)
	}
	return nil
}

// rebind converts ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// insert runs an INSERT and returns the new row id, using RETURNING on
// postgres and LastInsertId on sqlite.
func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	if s.dialect == dialectPostgres {
		var id int64
		err := s.db.QueryRowContext(ctx, s.rebind(query)+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func marshalParticipants(participants []string) (string, error) {
	if participants == nil {
		participants = []string{}
	}
	raw, err := json.Marshal(participants)
	if err != nil {
		return "", fmt.Errorf("failed to encode participants: %w", err)
	}
	return string(raw), nil
}

func unmarshalParticipants(raw string) []string {
	var participants []string
	if err := json.Unmarshal([]byte(raw), &participants); err != nil {
		return []string{}
	}
	return participants
}

// SaveBill inserts one bill and fills in its id and creation time.
func (s *Store) SaveBill(ctx context.Context, bill *Bill) error {
	participants, err := marshalParticipants(bill.Participants)
	if err != nil {
		return err
	}
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now().UTC()
	}
	if bill.Currency == "" {
		bill.Currency = "USD"
	}

	id, err := s.insert(ctx,
		`INSERT INTO bills (topic, payer, participants, amount, currency, note, created_at, user_input)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.Topic, bill.Payer, participants, bill.Amount, bill.Currency, bill.Note, bill.CreatedAt, bill.UserInput)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}
	bill.ID = id
	return nil
}

const billColumns = `id, topic, payer, participants, amount, currency, note, created_at, user_input`

func scanBill(row interface{ Scan(...any) error }) (Bill, error) {
	var b Bill
	var participants string
	err := row.Scan(&b.ID, &b.Topic, &b.Payer, &participants, &b.Amount, &b.Currency, &b.Note, &b.CreatedAt, &b.UserInput)
	if err != nil {
		return Bill{}, err
	}
	b.Participants = unmarshalParticipants(participants)
	return b, nil
}

// GetBill fetches one bill by id.
func (s *Store) GetBill(ctx context.Context, id int64) (Bill, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+billColumns+` FROM bills WHERE id = ?`), id)
	bill, err := scanBill(row)
	if err == sql.ErrNoRows {
		return Bill{}, ErrNotFound
	}
	if err != nil {
		return Bill{}, fmt.Errorf("failed to get bill %d: %w", id, err)
	}
	return bill, nil
}

// BillQuery filters and pages a bill listing. The zero value lists every
// bill. Payer matches by case-insensitive substring.
type BillQuery struct {
	Payer   string
	Page    int
	PerPage int
}

// ListBills returns one page of bills, newest first, plus the total count
// of matching rows. PerPage <= 0 disables paging.
func (s *Store) ListBills(ctx context.Context, q BillQuery) ([]Bill, int, error) {
	where := ""
	args := []any{}
	if q.Payer != "" {
		where = ` WHERE LOWER(payer) LIKE ?`
		args = append(args, "%"+strings.ToLower(q.Payer)+"%")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM bills`+where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bills: %w", err)
	}

	query := `SELECT ` + billColumns + ` FROM bills` + where + ` ORDER BY id DESC`
	if q.PerPage > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.PerPage, (page-1)*q.PerPage)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	bills := []Bill{}
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, bill)
	}
	return bills, total, rows.Err()
}

// SaveTravelPlan appends one finalized plan and fills in its id and
// timestamps.
func (s *Store) SaveTravelPlan(ctx context.Context, plan *TravelPlan) error {
	participants, err := marshalParticipants(plan.Participants)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now
	if plan.Currency == "" {
		plan.Currency = "USD"
	}

	id, err := s.insert(ctx,
		`INSERT INTO travel_plans (session_id, route_plan, restaurant_plan, budget, currency, destination, days, participants, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.SessionID, plan.RoutePlan, plan.RestaurantPlan, plan.Budget, plan.Currency,
		plan.Destination, plan.Days, participants, plan.CreatedAt, plan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert travel plan: %w", err)
	}
	plan.ID = id
	return nil
}

const planColumns = `id, session_id, route_plan, restaurant_plan, budget, currency, destination, days, participants, created_at, updated_at`

func scanPlan(row interface{ Scan(...any) error }) (TravelPlan, error) {
	var p TravelPlan
	var participants string
	err := row.Scan(&p.ID, &p.SessionID, &p.RoutePlan, &p.RestaurantPlan, &p.Budget, &p.Currency,
		&p.Destination, &p.Days, &participants, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return TravelPlan{}, err
	}
	p.Participants = unmarshalParticipants(participants)
	return p, nil
}

// GetTravelPlan fetches one finalized plan by id.
func (s *Store) GetTravelPlan(ctx context.Context, id int64) (TravelPlan, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+planColumns+` FROM travel_plans WHERE id = ?`), id)
	plan, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return TravelPlan{}, ErrNotFound
	}
	if err != nil {
		return TravelPlan{}, fmt.Errorf("failed to get travel plan %d: %w", id, err)
	}
	return plan, nil
}

// ListTravelPlans returns finalized plans, newest first, optionally
// filtered to one session.
func (s *Store) ListTravelPlans(ctx context.Context, sessionID string) ([]TravelPlan, error) {
	query := `SELECT ` + planColumns + ` FROM travel_plans ORDER BY id DESC`
	args := []any{}
	if sessionID != "" {
		query = `SELECT ` + planColumns + ` FROM travel_plans WHERE session_id = ? ORDER BY id DESC`
		args = append(args, sessionID)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list travel plans: %w", err)
	}
	defer rows.Close()

	plans := []TravelPlan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan travel plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}
