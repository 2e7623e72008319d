package service

import (
	"encoding/json"
	"fmt"
	"io"

	"ielts_edu_backend/internal/importer"

	"github.com/xuri/excelize/v2"
)

// ExportService 把内存草稿导出成下载文件：JSON 原样、CSV 按列契约、
// XLSX 给习惯表格审稿的运营
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

func (s *ExportService) WriteJSON(w io.Writer, draft *importer.Paper) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(draft)
}

func (s *ExportService) WriteCSV(w io.Writer, draft *importer.Paper) error {
	return importer.WriteCSV(w, importer.ToGrid(draft))
}

func (s *ExportService) WriteXLSX(w io.Writer, draft *importer.Paper) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	for i, col := range importer.GridColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}

	for rowIdx, row := range importer.ToGrid(draft) {
		values := []interface{}{
			row.PassageNumber,
			row.PassageTitle,
			row.QuestionNumber,
			row.QuestionText,
			row.QuestionType,
			row.Options,
			row.CorrectAnswer,
		}
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	_, err := f.WriteTo(w)
	return err
}

// ExportFilename 下载文件名：reading_test.json / reading_test.csv / ...
func ExportFilename(kind, format string) string {
	return fmt.Sprintf("%s_test.%s", kind, format)
}

// ContentType 各导出格式的 MIME
func ContentType(format string) string {
	switch format {
	case "csv":
		return "text/csv"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}
