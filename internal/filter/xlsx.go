package filter

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"myrupee/internal/core"
)

// SheetName is the worksheet written by ExportXLSX.
const SheetName = "Transactions"

// ExportXLSXFilename returns the download name for a spreadsheet export.
func ExportXLSXFilename(now time.Time) string {
	return "transactions_" + now.Format(core.DateLayout) + ".xlsx"
}

// ExportXLSX writes list to a single-sheet workbook with the same columns
// as the CSV export. Amounts are stored as numbers.
func ExportXLSX(w io.Writer, list []core.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for idx, tx := range list {
		row := idx + 2
		values := []interface{}{tx.Name, string(tx.Type), tx.Date, tx.Amount, tx.Tag}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	f.SetColWidth(SheetName, "A", "A", 30)
	f.SetColWidth(SheetName, "B", "D", 12)
	f.SetColWidth(SheetName, "E", "E", 15)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
