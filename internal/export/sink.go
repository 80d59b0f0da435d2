package export

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"lanews-extractor/internal/checksum"
)

// Sink сохраняет таблицу: заголовок и строки в порядке сбора
type Sink interface {
	Export(ctx context.Context, columns []string, rows [][]any) error
	Close() error
}

var (
	tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	nonIdentChars    = regexp.MustCompile(`[^a-z0-9]+`)
)

func validateTable(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// columnIdent: "Published Date" → "published_date"
func columnIdent(header string) string {
	ident := nonIdentChars.ReplaceAllString(strings.ToLower(header), "_")
	ident = strings.Trim(ident, "_")
	if ident == "" {
		return "col"
	}
	return ident
}

// sqlKind: тип колонки по первому непустому значению
type sqlKind int

const (
	kindText sqlKind = iota
	kindInt
	kindBool
)

func columnKinds(width int, rows [][]any) []sqlKind {
	kinds := make([]sqlKind, width)
	for col := 0; col < width; col++ {
		for _, row := range rows {
			if col >= len(row) || row[col] == nil {
				continue
			}
			switch row[col].(type) {
			case bool:
				kinds[col] = kindBool
			case int, int32, int64:
				kinds[col] = kindInt
			}
			break
		}
	}
	return kinds
}

func checkWidth(columns []string, rows [][]any) error {
	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), len(columns))
		}
	}
	return nil
}

// rowKeys: ключ строки = хеш значений и номера повтора среди одинаковых
// строк выгрузки. Одинаковые записи одного запуска не сливаются, а
// повторная выгрузка тех же записей попадает на те же ключи.
func rowKeys(gen *checksum.Generator, rows [][]any) []string {
	seen := make(map[string]int, len(rows))
	keys := make([]string, len(rows))
	for i, row := range rows {
		base := gen.RowHash(row)
		keys[i] = gen.RowHash([]any{base, seen[base]})
		seen[base]++
	}
	return keys
}
