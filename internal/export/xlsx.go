// Package export writes chapters to spreadsheet files.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/question"
)

const maxSheetName = 31

// SheetName turns a chapter name into a valid worksheet name.
func SheetName(chapterName string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, chapterName)
	name = strings.Trim(strings.TrimSpace(name), "'")

	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	if name == "" {
		return "Questions"
	}
	return name
}

// WriteChapterXLSX writes one worksheet with a header row followed by one
// row per question.
func WriteChapterXLSX(w io.Writer, chapterName string, questions []question.Question) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(chapterName)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &[]any{"Question", "Answer", "Level"}); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}

	for i, q := range questions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &[]any{q.Text, q.Answer, int(q.Level)}); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "B", 60); err != nil {
		return err
	}

	return f.Write(w)
}
