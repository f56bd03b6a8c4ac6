package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Employee roles.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// Place is a row of the places table.
type Place struct {
	ID     int64  `db:"id"`
	ChatID int64  `db:"chat_id"`
	Title  string `db:"title"`
}

// Employee is a row of the employees table.
type Employee struct {
	UserID   int64  `db:"user_id"`
	Fullname string `db:"fullname"`
	Username string `db:"username"`
	Role     string `db:"role"`
}

// Repo gives typed access to the bot's Postgres tables.
type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// DisplayName returns the employee's full name, or "" when unknown.
func (r *Repo) DisplayName(ctx context.Context, userID int64) (string, error) {
	var name string
	err := r.db.GetContext(ctx, &name,
		`SELECT fullname FROM employees WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("storage: display name: %w", err)
	}
	return name, nil
}

// IsEmployee reports whether the user is listed in the employees table.
func (r *Repo) IsEmployee(ctx context.Context, userID int64) (bool, error) {
	var found bool
	err := r.db.GetContext(ctx, &found,
		`SELECT EXISTS (SELECT 1 FROM employees WHERE user_id = $1)`, userID)
	if err != nil {
		return false, fmt.Errorf("storage: employee check: %w", err)
	}
	return found, nil
}

// IsAdmin reports whether the user carries the admin role.
func (r *Repo) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var found bool
	err := r.db.GetContext(ctx, &found,
		`SELECT EXISTS (SELECT 1 FROM employees WHERE user_id = $1 AND role = $2)`,
		userID, RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("storage: admin check: %w", err)
	}
	return found, nil
}

// Places lists all places in table order.
func (r *Repo) Places(ctx context.Context) ([]Place, error) {
	var rows []Place
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, chat_id, title FROM places ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("storage: places: %w", err)
	}
	return rows, nil
}

// RecordShiftSummary stores the closed-shift figures for statistics.
func (r *Repo) RecordShiftSummary(ctx context.Context, userID, placeID int64, date time.Time, visitors int, revenue decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shift_reports (user_id, place_id, report_date, visitors, revenue)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, placeID, date, visitors, revenue)
	if err != nil {
		return fmt.Errorf("storage: record shift summary: %w", err)
	}
	return nil
}

// VisitorsSince sums recorded visitors for reports not older than from.
func (r *Repo) VisitorsSince(ctx context.Context, from time.Time) (int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(visitors), 0) FROM shift_reports WHERE report_date >= $1`, from)
	if err != nil {
		return 0, fmt.Errorf("storage: visitors since: %w", err)
	}
	return total, nil
}

// RevenueSince sums recorded revenue for reports not older than from.
func (r *Repo) RevenueSince(ctx context.Context, from time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(revenue), 0) FROM shift_reports WHERE report_date >= $1`, from)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("storage: revenue since: %w", err)
	}
	return total, nil
}
