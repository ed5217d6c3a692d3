// Package report writes expertise scores to an Excel workbook.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/kenja/internal/models"
	"github.com/hyperjump/kenja/pkg/utils"
)

// SheetName is the worksheet holding the score rows.
const SheetName = "expertise"

// Header is the first row of the sheet.
var Header = []any{"user_id", "tag", "expertise_score"}

// Write writes scores as an XLSX workbook to w, one row per score in the given order.
// Scores are rounded to 4 decimals.
func Write(w io.Writer, scores []models.ExpertiseScore) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}
	head := make([]any, len(Header))
	for i, h := range Header {
		head[i] = excelize.Cell{Value: h, StyleID: bold}
	}
	if err := sw.SetRow("A1", head); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, s := range scores {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []any{s.UserID, s.Tag, utils.Round(s.Score, 4)}); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile writes the workbook to path.
func WriteFile(path string, scores []models.ExpertiseScore) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(out, scores); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
