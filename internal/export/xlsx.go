package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"kharcha/internal/core"
)

const workbookSheet = "Expenses"

// WriteWorkbook writes the sheet export as an .xlsx workbook with numeric
// amount cells.
func WriteWorkbook(w io.Writer, expenses []core.Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", workbookSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(sheetHeader))
	for i, h := range sheetHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(workbookSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, e := range expenses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			e.Date,
			string(e.Category),
			string(e.PaymentType.OrDefault()),
			core.SignedAmount(e.Category, e.Amount).InexactFloat64(),
			e.Notes,
		}
		if err := f.SetSheetRow(workbookSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
