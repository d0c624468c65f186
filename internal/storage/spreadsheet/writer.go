package spreadsheet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"product-scraper/internal/observability"
	"product-scraper/internal/scraper"
	"product-scraper/internal/storage"
)

const defaultSheet = "Sheet1"

// Writer выгружает датасет в xlsx-книгу с одним листом
type Writer struct {
	path      string
	sheetName string
	logger    *observability.Logger
}

func NewWriter(path, sheetName string, logger *observability.Logger) *Writer {
	if sheetName == "" {
		sheetName = defaultSheet
	}
	return &Writer{
		path:      path,
		sheetName: sheetName,
		logger:    logger,
	}
}

func (w *Writer) Name() string {
	return "xlsx"
}

// Save перезаписывает файл: строка заголовков, затем по строке на запись
func (w *Writer) Save(ctx context.Context, dataset scraper.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			w.logger.Error("Failed to close workbook", "error", err.Error())
		}
	}()

	if w.sheetName != defaultSheet {
		if err := f.SetSheetName(defaultSheet, w.sheetName); err != nil {
			return fmt.Errorf("failed to rename sheet: %w", err)
		}
	}

	header := make([]interface{}, len(storage.Columns))
	for i, c := range storage.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(w.sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range dataset {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{rec.Title, rec.Price, rec.Rating}
		if err := f.SetSheetRow(w.sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Records saved",
		"sink", w.Name(),
		"path", w.path,
		"rows", len(dataset),
	)
	return nil
}

func (w *Writer) Close() error {
	return nil
}
