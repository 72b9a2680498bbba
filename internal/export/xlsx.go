package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes one worksheet per table, in order, the first one active.
func WriteXLSX(w io.Writer, tables ...Table) error {
	if len(tables) == 0 {
		return errors.New("no tables to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.Name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("create sheet %s: %w", t.Name, err)
		}
		if err := writeSheet(f, t); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, t Table) error {
	for i, h := range t.Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(t.Name, cell, h); err != nil {
			return fmt.Errorf("%s header: %w", t.Name, err)
		}
	}

	widths := make([]int, len(t.Header))
	for i, h := range t.Header {
		widths[i] = len(h)
	}
	for r, row := range t.Rows {
		for c, cell := range row {
			name, _ := excelize.CoordinatesToCellName(c+1, r+2)
			var v any = cell.Text
			if cell.Value != nil {
				v = cell.Value
			}
			if err := f.SetCellValue(t.Name, name, v); err != nil {
				return fmt.Errorf("%s %s: %w", t.Name, name, err)
			}
			if c < len(widths) && len(cell.Text) > widths[c] {
				widths[c] = len(cell.Text)
			}
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(t.Name, col, col, float64(min(w+2, 60))); err != nil {
			return fmt.Errorf("%s column width: %w", t.Name, err)
		}
	}
	return nil
}
