package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"lanews-extractor/internal/observability"
)

// XLSXSink пишет один лист: строка заголовка, затем записи
type XLSXSink struct {
	path   string
	sheet  string
	logger *observability.Logger
}

func NewXLSXSink(path, sheet string, logger *observability.Logger) *XLSXSink {
	return &XLSXSink{
		path:   path,
		sheet:  sheet,
		logger: logger,
	}
}

func (s *XLSXSink) Export(ctx context.Context, columns []string, rows [][]any) (err error) {
	if err := checkWidth(columns, rows); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", s.sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := s.writeRow(f, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := s.writeRow(f, i+2, row); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	s.logger.Info("Workbook saved",
		"path", s.path,
		"sheet", s.sheet,
		"rows", len(rows),
	)
	return nil
}

func (s *XLSXSink) writeRow(f *excelize.File, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(s.sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

func (s *XLSXSink) Close() error {
	return nil
}

var _ Sink = (*XLSXSink)(nil)
