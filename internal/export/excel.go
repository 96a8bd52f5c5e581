// Package export produces the bookings register as an Excel workbook for
// offline review.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExcelWriter writes tabular data to an Excel workbook.
type ExcelWriter interface {
	AddSheet(name string) error
	WriteHeader(columns []string) error
	WriteRow(row []any) error
	Save(w io.Writer) error
	Close() error
}

// ExcelizeWriter implements ExcelWriter using the excelize library.
type ExcelizeWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

// NewExcelizeWriter creates a new workbook writer.
func NewExcelizeWriter() *ExcelizeWriter {
	return &ExcelizeWriter{file: excelize.NewFile()}
}

// AddSheet adds a sheet and makes it current. The first sheet reuses the
// workbook default; names are truncated to Excel's 31-character limit.
func (w *ExcelizeWriter) AddSheet(name string) error {
	if len(name) > 31 {
		name = name[:31]
	}
	if w.currentSheet == "" {
		w.file.SetSheetName("Sheet1", name)
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	w.currentSheet = name
	w.currentRow = 1
	return nil
}

// WriteHeader writes bold column headers to the current sheet.
func (w *ExcelizeWriter) WriteHeader(columns []string) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, col); err != nil {
			return err
		}
	}
	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}
	w.currentRow++
	return nil
}

// WriteRow writes a data row to the current sheet.
func (w *ExcelizeWriter) WriteRow(row []any) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}
	w.currentRow++
	return nil
}

// Save writes the workbook to the writer.
func (w *ExcelizeWriter) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

// Close releases workbook resources.
func (w *ExcelizeWriter) Close() error {
	return w.file.Close()
}

// RegisterSource provides the rows of the bookings register.
type RegisterSource interface {
	BookingRegisterRows(ctx context.Context) ([]RegisterRow, error)
}

// RegisterRow is one line of the bookings register: a booking joined with
// its item and booker names.
type RegisterRow struct {
	BookingID  int64
	ItemID     int64
	ItemName   string
	BookerID   int64
	BookerName string
	Start      string
	End        string
	Status     string
	CreatedAt  string
}

var registerColumns = []string{
	"Booking ID", "Item ID", "Item", "Booker ID", "Booker", "Start", "End", "Status", "Created",
}

// WriteRegister renders the full bookings register into the writer.
func WriteRegister(ctx context.Context, source RegisterSource, w ExcelWriter) error {
	rows, err := source.BookingRegisterRows(ctx)
	if err != nil {
		return fmt.Errorf("load register rows: %w", err)
	}
	if err := w.AddSheet("Bookings"); err != nil {
		return err
	}
	if err := w.WriteHeader(registerColumns); err != nil {
		return err
	}
	for _, row := range rows {
		err := w.WriteRow([]any{
			row.BookingID,
			row.ItemID,
			row.ItemName,
			row.BookerID,
			row.BookerName,
			row.Start,
			row.End,
			row.Status,
			row.CreatedAt,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
