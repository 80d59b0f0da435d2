package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"lanews-extractor/internal/checksum"
	"lanews-extractor/internal/observability"
)

// SQLiteSink дописывает строки в таблицу; повторная строка (тот же row_hash)
// только получает новый run_id
type SQLiteSink struct {
	db             *sql.DB
	table          string
	runID          string
	commandTimeout time.Duration
	checksum       *checksum.Generator
	logger         *observability.Logger
}

func NewSQLiteSink(ctx context.Context, path, table, runID string, commandTimeout time.Duration, logger *observability.Logger) (*SQLiteSink, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	return &SQLiteSink{
		db:             db,
		table:          table,
		runID:          runID,
		commandTimeout: commandTimeout,
		checksum:       checksum.NewGenerator(),
		logger:         logger,
	}, nil
}

func (s *SQLiteSink) Export(ctx context.Context, columns []string, rows [][]any) error {
	if err := checkWidth(columns, rows); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	idents := make([]string, len(columns))
	for i, c := range columns {
		idents[i] = columnIdent(c)
	}

	if err := s.ensureTable(ctx, idents, columnKinds(len(columns), rows)); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.upsertQuery(idents))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			s.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	keys := rowKeys(s.checksum, rows)
	exportedAt := time.Now().UTC().Format(time.RFC3339)
	for i, row := range rows {
		args := make([]any, 0, len(row)+3)
		args = append(args, s.runID, keys[i], exportedAt)
		args = append(args, row...)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to upsert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Info("Rows exported",
		"driver", "sqlite",
		"table", s.table,
		"rows", len(rows),
	)
	return nil
}

func (s *SQLiteSink) ensureTable(ctx context.Context, idents []string, kinds []sqlKind) error {
	defs := []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT",
		"run_id TEXT NOT NULL",
		"row_hash TEXT UNIQUE NOT NULL",
		"exported_at TEXT NOT NULL",
	}
	for i, ident := range idents {
		typ := "TEXT"
		if kinds[i] != kindText {
			typ = "INTEGER"
		}
		defs = append(defs, fmt.Sprintf("%q %s", ident, typ))
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (\n\t%s\n)", s.table, strings.Join(defs, ",\n\t"))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func (s *SQLiteSink) upsertQuery(idents []string) string {
	cols := []string{"run_id", "row_hash", "exported_at"}
	for _, ident := range idents {
		cols = append(cols, fmt.Sprintf("%q", ident))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	return fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)
ON CONFLICT(row_hash) DO UPDATE SET
	run_id=excluded.run_id,
	exported_at=excluded.exported_at`,
		s.table, strings.Join(cols, ", "), placeholders)
}

func (s *SQLiteSink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ Sink = (*SQLiteSink)(nil)
