package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"lanews-extractor/internal/checksum"
	"lanews-extractor/internal/observability"
)

// MSSQLSink сливает строки в таблицу по RowHash через MERGE
type MSSQLSink struct {
	db             *sql.DB
	table          string
	runID          string
	commandTimeout time.Duration
	checksum       *checksum.Generator
	logger         *observability.Logger
}

func NewMSSQLSink(ctx context.Context, dsn, table, runID string, commandTimeout time.Duration, logger *observability.Logger) (*MSSQLSink, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Тестируем соединение
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &MSSQLSink{
		db:             db,
		table:          table,
		runID:          runID,
		commandTimeout: commandTimeout,
		checksum:       checksum.NewGenerator(),
		logger:         logger,
	}, nil
}

func (s *MSSQLSink) Export(ctx context.Context, columns []string, rows [][]any) error {
	if err := checkWidth(columns, rows); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, createTableQuery(s.table, columns, columnKinds(len(columns), rows))); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	stmt, err := s.db.PrepareContext(ctx, mergeQuery(s.table, columns))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			s.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	keys := rowKeys(s.checksum, rows)
	affected := 0
	for i, row := range rows {
		args := []any{
			sql.Named("RunID", s.runID),
			sql.Named("RowHash", keys[i]),
		}
		for j, v := range row {
			args = append(args, sql.Named(fmt.Sprintf("c%d", j), v))
		}

		result, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return fmt.Errorf("failed to execute upsert for row %d: %w", i, err)
		}
		if n, err := result.RowsAffected(); err == nil && n > 0 {
			affected++
		}
	}

	s.logger.Info("Rows exported",
		"driver", "mssql",
		"table", s.table,
		"rows", len(rows),
		"affected", affected,
	)
	return nil
}

func quoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func createTableQuery(table string, columns []string, kinds []sqlKind) string {
	defs := []string{
		"[ID] INT IDENTITY(1,1) PRIMARY KEY",
		"[RunID] NVARCHAR(36) NOT NULL",
		"[RowHash] CHAR(64) NOT NULL UNIQUE",
		"[ExportedAt] DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()",
	}
	for i, c := range columns {
		typ := "NVARCHAR(MAX) NULL"
		switch kinds[i] {
		case kindInt:
			typ = "INT NULL"
		case kindBool:
			typ = "BIT NULL"
		}
		defs = append(defs, quoteIdent(c)+" "+typ)
	}

	return fmt.Sprintf(`IF OBJECT_ID(N'%s', N'U') IS NULL
CREATE TABLE %s (
	%s
);`, table, quoteIdent(table), strings.Join(defs, ",\n\t"))
}

func mergeQuery(table string, columns []string) string {
	cols := []string{"[RunID]", "[RowHash]"}
	params := []string{"@RunID", "@RowHash"}
	for i, c := range columns {
		cols = append(cols, quoteIdent(c))
		params = append(params, fmt.Sprintf("@c%d", i))
	}

	return fmt.Sprintf(`
		MERGE INTO %s AS target
		USING (SELECT @RowHash AS RowHash) AS source
		ON target.[RowHash] = source.RowHash
		WHEN MATCHED THEN
			UPDATE SET
				[RunID] = @RunID,
				[ExportedAt] = SYSUTCDATETIME()
		WHEN NOT MATCHED THEN
			INSERT (%s)
			VALUES (%s);
	`, quoteIdent(table), strings.Join(cols, ", "), strings.Join(params, ", "))
}

// Close закрывает соединение с БД
func (s *MSSQLSink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ Sink = (*MSSQLSink)(nil)
