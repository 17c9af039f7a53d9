package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"pocketbook/internal/accounts"
	"pocketbook/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteGateway stores the record in relational tables. Save replaces the
// whole record in a single transaction.
type SQLiteGateway struct {
	db            *sql.DB
	schemaVersion uint
}

var _ Gateway = (*SQLiteGateway)(nil)

func NewSQLiteGateway(dbPath string) (*SQLiteGateway, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateSchema(dbPath, ledgerMigrations())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger schema: %w", err)
	}

	return &SQLiteGateway{db: db, schemaVersion: version}, nil
}

// SchemaVersion is the migration version the database was brought to.
func (g *SQLiteGateway) SchemaVersion() uint {
	return g.schemaVersion
}

func (g *SQLiteGateway) Close() error {
	if g.db != nil {
		return g.db.Close()
	}
	return nil
}

// Load reads every account in username order.
func (g *SQLiteGateway) Load(ctx context.Context) (accounts.Snapshot, error) {
	snap := accounts.EmptySnapshot()

	rows, err := g.db.QueryContext(ctx, `SELECT username, password, income_cents, budget_cents FROM accounts ORDER BY username`)
	if err != nil {
		return accounts.Snapshot{}, fmt.Errorf("query accounts: %w", err)
	}
	var names []string
	for rows.Next() {
		var (
			name           string
			acct           = core.NewAccount("")
			income, budget int64
		)
		if err := rows.Scan(&name, &acct.Credential, &income, &budget); err != nil {
			rows.Close()
			return accounts.Snapshot{}, fmt.Errorf("scan account: %w", err)
		}
		acct.Income = core.Money{Cents: income}
		acct.Budget = core.Money{Cents: budget}
		snap.Users[name] = acct
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return accounts.Snapshot{}, fmt.Errorf("iterate accounts: %w", err)
	}

	for _, name := range names {
		acct := snap.Users[name]
		if err := g.loadExpenses(ctx, name, acct); err != nil {
			return accounts.Snapshot{}, err
		}
		if err := g.loadCategories(ctx, name, acct); err != nil {
			return accounts.Snapshot{}, err
		}
		if err := g.loadMonthly(ctx, name, acct); err != nil {
			return accounts.Snapshot{}, err
		}
	}

	var current sql.NullString
	err = g.db.QueryRowContext(ctx, `SELECT username FROM session WHERE id = 1`).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return accounts.Snapshot{}, fmt.Errorf("query session: %w", err)
	case current.Valid && current.String != "":
		snap.CurrentUser = &current.String
	}

	slog.DebugContext(ctx, "Loaded snapshot from SQLite", "users", len(snap.Users))
	return snap, nil
}

func (g *SQLiteGateway) loadExpenses(ctx context.Context, username string, acct *core.Account) error {
	rows, err := g.db.QueryContext(ctx, `
		SELECT amount_cents, description, category, expense_date, frequency, recurring
		FROM expenses WHERE username = ? ORDER BY position`, username)
	if err != nil {
		return fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entry     core.ExpenseEntry
			amount    int64
			date      sql.NullString
			frequency sql.NullString
		)
		if err := rows.Scan(&amount, &entry.Description, &entry.Category, &date, &frequency, &entry.Recurring); err != nil {
			return fmt.Errorf("scan expense: %w", err)
		}
		entry.Amount = core.Money{Cents: amount}
		if date.Valid {
			d, err := core.ParseDate(date.String)
			if err != nil {
				return fmt.Errorf("%w: expense of %q: %v", ErrCorruptState, username, err)
			}
			entry.Date = &d
		}
		entry.Frequency = core.Frequency(frequency.String)
		acct.Expenses = append(acct.Expenses, entry)
	}
	return rows.Err()
}

func (g *SQLiteGateway) loadCategories(ctx context.Context, username string, acct *core.Account) error {
	rows, err := g.db.QueryContext(ctx, `
		SELECT category, total_cents FROM category_totals WHERE username = ? ORDER BY position`, username)
	if err != nil {
		return fmt.Errorf("query category totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			category string
			total    int64
		)
		if err := rows.Scan(&category, &total); err != nil {
			return fmt.Errorf("scan category total: %w", err)
		}
		acct.Categories.Add(category, core.Money{Cents: total})
	}
	return rows.Err()
}

func (g *SQLiteGateway) loadMonthly(ctx context.Context, username string, acct *core.Account) error {
	rows, err := g.db.QueryContext(ctx, `
		SELECT period, total_cents FROM monthly_totals WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("query monthly totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			period string
			total  int64
		)
		if err := rows.Scan(&period, &total); err != nil {
			return fmt.Errorf("scan monthly total: %w", err)
		}
		acct.Monthly[period] = core.Money{Cents: total}
	}
	return rows.Err()
}

// Save replaces the stored record with snap.
func (g *SQLiteGateway) Save(ctx context.Context, snap accounts.Snapshot) (err error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"session", "monthly_totals", "category_totals", "expenses", "accounts"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	names := make([]string, 0, len(snap.Users))
	for name := range snap.Users {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err = saveAccount(ctx, tx, name, snap.Users[name]); err != nil {
			return err
		}
	}

	if snap.CurrentUser != nil {
		if _, err = tx.ExecContext(ctx, `INSERT INTO session (id, username) VALUES (1, ?)`, *snap.CurrentUser); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Saved snapshot to SQLite", "users", len(names))
	return nil
}

func saveAccount(ctx context.Context, tx *sql.Tx, name string, acct *core.Account) error {
	if acct == nil {
		return fmt.Errorf("save account %q: nil account", name)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (username, password, income_cents, budget_cents) VALUES (?, ?, ?, ?)`,
		name, acct.Credential, acct.Income.Cents, acct.Budget.Cents); err != nil {
		return fmt.Errorf("save account %q: %w", name, err)
	}

	for i, e := range acct.Expenses {
		var date, frequency sql.NullString
		if e.Date != nil {
			date = sql.NullString{String: e.Date.String(), Valid: true}
		}
		if e.Frequency != "" {
			frequency = sql.NullString{String: string(e.Frequency), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (username, position, amount_cents, description, category, expense_date, frequency, recurring)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			name, i, e.Amount.Cents, e.Description, e.Category, date, frequency, e.Recurring); err != nil {
			return fmt.Errorf("save expense %d of %q: %w", i, name, err)
		}
	}

	if acct.Categories != nil {
		for i, ca := range acct.Categories.Amounts() {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO category_totals (username, position, category, total_cents) VALUES (?, ?, ?, ?)`,
				name, i, ca.Name, ca.Amount.Cents); err != nil {
				return fmt.Errorf("save category %q of %q: %w", ca.Name, name, err)
			}
		}
	}

	for period, total := range acct.Monthly {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO monthly_totals (username, period, total_cents) VALUES (?, ?, ?)`,
			name, period, total.Cents); err != nil {
			return fmt.Errorf("save monthly total %q of %q: %w", period, name, err)
		}
	}
	return nil
}
