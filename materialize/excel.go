package materialize

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/dbclientapi/processor/dbconn"
)

const sheetName = "Sheet1"

func writeExcel(destPath string, res *dbconn.Result) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("name excel sheet: %w", err)
	}

	for i, name := range res.ColumnNames {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("excel header coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return fmt.Errorf("write excel header: %w", err)
		}
	}
	for r, row := range res.Rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("excel cell coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, stringify(v)); err != nil {
				return fmt.Errorf("write excel cell: %w", err)
			}
		}
	}
	if err := f.SaveAs(destPath); err != nil {
		return fmt.Errorf("save excel file: %w", err)
	}
	return nil
}
