package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is the longest sheet name Excel accepts
const maxSheetName = 31

// ExportWorkbook writes the roster to w as an .xlsx file with one sheet
func ExportWorkbook(roster *Roster, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(roster.Title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return fmt.Errorf("failed to create title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 2},
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	holidayStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: "#FF0000", Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
	})
	if err != nil {
		return fmt.Errorf("failed to create holiday style: %w", err)
	}

	// Title in A1, table from row 3
	if err := f.SetCellValue(sheet, "A1", roster.Title); err != nil {
		return fmt.Errorf("failed to write title: %w", err)
	}
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	table := roster.Table()
	const firstRow = 3
	for i, line := range table {
		cell, err := excelize.CoordinatesToCellName(1, firstRow+i)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i, err)
		}
		values := make([]interface{}, len(line))
		for j, v := range line {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(table[0]))
	if err != nil {
		return fmt.Errorf("failed to resolve last column: %w", err)
	}
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", firstRow), fmt.Sprintf("%s%d", lastCol, firstRow), headerStyle)
	if roster.HasHolidays() {
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", firstRow+1), fmt.Sprintf("%s%d", lastCol, firstRow+1), holidayStyle)
	}

	f.SetColWidth(sheet, "A", "A", 22)
	f.SetColWidth(sheet, "B", "B", 14)
	if len(roster.Days) > 0 {
		firstDay, _ := excelize.ColumnNumberToName(3)
		lastDay, _ := excelize.ColumnNumberToName(2 + len(roster.Days))
		f.SetColWidth(sheet, firstDay, lastDay, 13)
	}
	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      firstRow,
		TopLeftCell: fmt.Sprintf("B%d", firstRow+1),
		ActivePane:  "bottomRight",
	})

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SheetName makes title usable as a sheet or tab name
func SheetName(title string) string {
	name := strings.NewReplacer(":", "", "\\", "", "/", "-", "?", "", "*", "", "[", "(", "]", ")").Replace(title)
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Roster"
	}
	if len([]rune(name)) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	return name
}
