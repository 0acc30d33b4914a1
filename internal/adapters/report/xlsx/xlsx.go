// Package xlsx materializes report rows into an Excel workbook
package xlsx

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"consultmail/internal/services/reports/domain"
)

const sheet = "상담기록"

// column headers, in row order
var headers = []string{"상담일", "시작시간", "종료시간", "장소", "학번", "이름", "상담요청 내용", "교수 답변"}

// now is a seam so tests can pin the filename timestamp
var now = time.Now

// Serializer implements domain.Serializer with excelize
type Serializer struct{}

// New constructs the serializer
func New() *Serializer { return &Serializer{} }

// Serialize implements domain.Serializer. An empty row set still yields a
// workbook with the header row
func (s *Serializer) Serialize(ctx context.Context, rows []domain.ReportRow) (string, []byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return "", nil, fmt.Errorf("name sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return "", nil, fmt.Errorf("header %q: %w", h, err)
		}
	}

	for r, row := range rows {
		values := []string{
			row.Date, row.StartTime, row.EndTime, row.Place,
			row.StudentID, row.StudentName, row.RequestText, row.ResponseText,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return "", nil, fmt.Errorf("row %d col %d: %w", r+2, c+1, err)
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "C", 10) // times
	_ = f.SetColWidth(sheet, "D", "D", 10) // place
	_ = f.SetColWidth(sheet, "E", "E", 12) // student id
	_ = f.SetColWidth(sheet, "F", "F", 10) // name
	_ = f.SetColWidth(sheet, "G", "H", 60) // request / response

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", nil, fmt.Errorf("write workbook: %w", err)
	}

	name := fmt.Sprintf("consultation_report_%s.xlsx", now().Format("20060102_150405"))
	return name, buf.Bytes(), nil
}
