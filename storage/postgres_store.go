package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"vehicle-dashboard/models"
	"vehicle-dashboard/utils"
)

// vehicleColumns is the fixed schema of the vehicles table, in CSV order.
var vehicleColumns = []struct {
	name    string
	numeric bool
}{
	{"price", true},
	{"model_year", true},
	{"model", false},
	{"condition", false},
	{"cylinders", true},
	{"fuel", false},
	{"odometer", true},
	{"transmission", false},
	{"type", false},
	{"paint_color", false},
	{"is_4wd", true},
	{"date_posted", false},
	{"days_listed", true},
}

const importBatchSize = 50

// PostgresStore reads and imports vehicle listings in PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it to answer,
// runs schema migrations and returns a ready-to-use store.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres-ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db, logger: logger}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, createTableSQL())
	return err
}

func createTableSQL() string {
	defs := make([]string, 0, len(vehicleColumns)+1)
	defs = append(defs, "id SERIAL PRIMARY KEY")
	for _, c := range vehicleColumns {
		typ := "TEXT"
		if c.numeric {
			typ = "DOUBLE PRECISION"
		}
		defs = append(defs, fmt.Sprintf("%s %s NULL", quoteIdent(c.name), typ))
	}
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS vehicles (
			%s
		);

		CREATE INDEX IF NOT EXISTS idx_vehicles_price     ON vehicles(price);
		CREATE INDEX IF NOT EXISTS idx_vehicles_odometer  ON vehicles(odometer);
		CREATE INDEX IF NOT EXISTS idx_vehicles_condition ON vehicles(condition);
	`, strings.Join(defs, ",\n\t\t\t"))
}

// ReadRaw fetches every stored listing in insertion order. NULLs become
// empty strings so they read as missing values.
func (ps *PostgresStore) ReadRaw(ctx context.Context) (*models.RawTable, error) {
	names := columnNames()
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}

	rows, err := ps.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM vehicles ORDER BY id", strings.Join(quoted, ", ")))
	if err != nil {
		return nil, fmt.Errorf("%w: postgres: fetch all: %w", models.ErrDataUnavailable, err)
	}
	defer rows.Close()

	table := &models.RawTable{Columns: names}
	for rows.Next() {
		vals := make([]sql.NullString, len(names))
		dest := make([]any, len(names))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: postgres: scan row: %w", models.ErrDataUnavailable, err)
		}
		row := make([]string, len(names))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: postgres: %w", models.ErrDataUnavailable, err)
	}
	return table, nil
}

// Import replaces the table contents with the rows of table in a single
// transaction, so a failed batch leaves the previous contents in place.
// Columns not in the vehicles schema are ignored; schema columns absent
// from table are NULL.
func (ps *PostgresStore) Import(ctx context.Context, table *models.RawTable) (int, error) {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM vehicles"); err != nil {
		return 0, fmt.Errorf("postgres: clear: %w", err)
	}

	index := sourceIndex(table.Columns)
	inserted := 0
	for i := 0; i < len(table.Rows); i += importBatchSize {
		end := i + importBatchSize
		if end > len(table.Rows) {
			end = len(table.Rows)
		}
		query, args := buildInsert(table.Rows[i:end], index)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("postgres: insert batch at row %d: %w", i, err)
		}
		inserted += end - i
		ps.logger.Debug("[postgres] Inserted %d/%d rows", inserted, len(table.Rows))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("postgres: commit import: %w", err)
	}
	return inserted, nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

func columnNames() []string {
	names := make([]string, len(vehicleColumns))
	for i, c := range vehicleColumns {
		names[i] = c.name
	}
	return names
}

// sourceIndex maps each schema column to its position in header, or -1.
func sourceIndex(header []string) []int {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(h))] = i
	}
	index := make([]int, len(vehicleColumns))
	for i, c := range vehicleColumns {
		if p, ok := pos[c.name]; ok {
			index[i] = p
		} else {
			index[i] = -1
		}
	}
	return index
}

func buildInsert(batch [][]string, index []int) (string, []any) {
	width := len(vehicleColumns)
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*width)

	for r, row := range batch {
		placeholders := make([]string, width)
		for c := range vehicleColumns {
			placeholders[c] = fmt.Sprintf("$%d", r*width+c+1)
			valueArgs = append(valueArgs, columnValue(row, index[c], vehicleColumns[c].numeric))
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
	}

	quoted := make([]string, width)
	for i, n := range columnNames() {
		quoted[i] = quoteIdent(n)
	}
	query := fmt.Sprintf("INSERT INTO vehicles (%s) VALUES %s",
		strings.Join(quoted, ", "), strings.Join(valueStrings, ","))
	return query, valueArgs
}

// columnValue returns nil for values that should be stored as NULL.
func columnValue(row []string, pos int, numeric bool) any {
	if pos < 0 || pos >= len(row) {
		return nil
	}
	s := strings.TrimSpace(row[pos])
	if s == "" {
		return nil
	}
	if !numeric {
		return s
	}
	n, ok := models.ParseNumber(s)
	if !ok {
		return nil
	}
	return n.Float64
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
