package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, fixture()[:2]); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(workbookSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][4] != "Notes" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][3] != "500" || rows[2][3] != "-300" || rows[2][2] != "Cash" {
		t.Fatalf("unexpected data rows %v", rows[1:])
	}
}
