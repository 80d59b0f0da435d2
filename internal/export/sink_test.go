package export

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"lanews-extractor/internal/checksum"
	"lanews-extractor/internal/observability"
)

var (
	testColumns = []string{"Title", "Description", "Published Date", "Contains Money", "Search Term Count", "Image Path"}
	testRows    = [][]any{
		{"Tennis final", "Prize $1,200", "2026-10-18", true, 1, "output/images/image_0.jpg"},
		{"Open draw", "", "", false, 0, ""},
	}
)

// TestColumnIdent verifies header to identifier conversion
func TestColumnIdent(t *testing.T) {
	tests := map[string]string{
		"Published Date":    "published_date",
		"Search Term Count": "search_term_count",
		"Title":             "title",
		"  ??":              "col",
	}
	for header, want := range tests {
		assert.Equal(t, want, columnIdent(header), header)
	}
}

// TestColumnKinds verifies type inference skips nil cells
func TestColumnKinds(t *testing.T) {
	kinds := columnKinds(3, [][]any{
		{nil, "x", nil},
		{true, "y", 2},
	})
	assert.Equal(t, []sqlKind{kindBool, kindText, kindInt}, kinds)
}

// TestXLSXSink verifies the header row and records round-trip through excelize
func TestXLSXSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "extracted_data.xlsx")
	sink := NewXLSXSink(path, "Election News Data", observability.NewNopLogger())

	require.NoError(t, sink.Export(context.Background(), testColumns, testRows))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Election News Data"}, f.GetSheetList())

	rows, err := f.GetRows("Election News Data")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, testColumns, rows[0])
	assert.Equal(t, "Tennis final", rows[1][0])
	assert.Equal(t, "2026-10-18", rows[1][2])
	assert.Equal(t, "1", rows[1][4])
	assert.Equal(t, "Open draw", rows[2][0])
}

// TestXLSXSink_Empty verifies a header-only workbook is written for zero records
func TestXLSXSink_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	sink := NewXLSXSink(path, "Sheet", observability.NewNopLogger())

	require.NoError(t, sink.Export(context.Background(), testColumns, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet")
	require.NoError(t, err)
	assert.Equal(t, [][]string{testColumns}, rows)
}

// TestXLSXSink_RowWidth verifies mismatched rows are rejected
func TestXLSXSink_RowWidth(t *testing.T) {
	sink := NewXLSXSink(filepath.Join(t.TempDir(), "x.xlsx"), "Sheet", observability.NewNopLogger())

	err := sink.Export(context.Background(), testColumns, [][]any{{"only one"}})
	assert.ErrorContains(t, err, "row 0 has 1 values")
}

// TestSQLiteSink verifies inserts and that re-exporting the same rows does not duplicate them
func TestSQLiteSink(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "news.db")

	first, err := NewSQLiteSink(ctx, path, "NewsArticles", "run-1", 5*time.Second, observability.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, first.Export(ctx, testColumns, testRows))
	require.NoError(t, first.Close())

	second, err := NewSQLiteSink(ctx, path, "NewsArticles", "run-2", 5*time.Second, observability.NewNopLogger())
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.Export(ctx, testColumns, testRows[:1]))

	var count int
	require.NoError(t, second.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "NewsArticles"`).Scan(&count))
	assert.Equal(t, 2, count)

	var (
		title, runID string
		money, terms int
	)
	err = second.db.QueryRowContext(ctx,
		`SELECT "title", run_id, "contains_money", "search_term_count" FROM "NewsArticles" ORDER BY id LIMIT 1`,
	).Scan(&title, &runID, &money, &terms)
	require.NoError(t, err)
	assert.Equal(t, "Tennis final", title)
	assert.Equal(t, "run-2", runID)
	assert.Equal(t, 1, money)
	assert.Equal(t, 1, terms)
}

// TestRowKeys verifies identical rows get distinct keys that are stable across exports
func TestRowKeys(t *testing.T) {
	gen := checksum.NewGenerator()
	row := []any{"Live: Tennis updates", "", "", false, 1, ""}

	keys := rowKeys(gen, [][]any{row, testRows[0], row})
	assert.Len(t, keys, 3)
	assert.NotEqual(t, keys[0], keys[2])
	assert.NotEqual(t, keys[0], keys[1])
	assert.Equal(t, keys, rowKeys(gen, [][]any{row, testRows[0], row}))
}

// TestSQLiteSink_IdenticalRows verifies two records with equal values are stored as two rows
func TestSQLiteSink_IdenticalRows(t *testing.T) {
	ctx := context.Background()
	row := []any{"Live: Tennis updates", "", "", false, 1, ""}

	sink, err := NewSQLiteSink(ctx, filepath.Join(t.TempDir(), "news.db"), "NewsArticles", "run-1", 5*time.Second, observability.NewNopLogger())
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Export(ctx, testColumns, [][]any{row, row}))
	require.NoError(t, sink.Export(ctx, testColumns, [][]any{row, row}))

	var count int
	require.NoError(t, sink.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "NewsArticles"`).Scan(&count))
	assert.Equal(t, 2, count)
}

// TestSQLiteSink_InvalidTable verifies table names are restricted to identifiers
func TestSQLiteSink_InvalidTable(t *testing.T) {
	_, err := NewSQLiteSink(context.Background(), filepath.Join(t.TempDir(), "x.db"), "news; DROP", "run", time.Second, observability.NewNopLogger())
	assert.ErrorContains(t, err, "invalid table name")
}

// TestMSSQLQueries verifies the generated DDL and MERGE statements
func TestMSSQLQueries(t *testing.T) {
	ddl := createTableQuery("NewsArticles", testColumns, columnKinds(len(testColumns), testRows))
	assert.Contains(t, ddl, "IF OBJECT_ID(N'NewsArticles', N'U') IS NULL")
	assert.Contains(t, ddl, "[Published Date] NVARCHAR(MAX) NULL")
	assert.Contains(t, ddl, "[Contains Money] BIT NULL")
	assert.Contains(t, ddl, "[Search Term Count] INT NULL")

	merge := mergeQuery("NewsArticles", testColumns)
	assert.Contains(t, merge, "MERGE INTO [NewsArticles] AS target")
	assert.Contains(t, merge, "ON target.[RowHash] = source.RowHash")
	assert.Contains(t, merge, "@c5")
	assert.Equal(t, 1, strings.Count(merge, "WHEN NOT MATCHED"))

	assert.Equal(t, "[a]]b]", quoteIdent("a]b"))
}
