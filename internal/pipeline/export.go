package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"mkbscrape/internal"
)

const CSVDelimiter = '|'

var exportHeaders = []string{"code", "description_serbian", "description_latin"}

func WriteCSV(w io.Writer, entries []internal.Entry) error {
	cw := csv.NewWriter(w)
	cw.Comma = CSVDelimiter
	if err := cw.Write(exportHeaders); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Code, e.Primary, e.Alternate}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ExportEntriesToCSV(entries []internal.Entry, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, entries); err != nil {
		_ = f.Close()
		return fmt.Errorf("write csv %s: %w", outputPath, err)
	}
	return f.Close()
}

func ExportEntriesToXLSX(entries []internal.Entry, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, e := range entries {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}
		set(1, e.Code)
		set(2, e.Primary)
		set(3, e.Alternate)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
