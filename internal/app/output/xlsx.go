package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	msges "github.com/veyra-labs/dpscan/internal/messages"
	"github.com/veyra-labs/dpscan/internal/report"
)

// SaveXLSX writes a workbook with a site summary sheet and a detections
// sheet to dir and returns the file path.
func SaveXLSX(dir string, sites []report.SiteReport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	file := excelize.NewFile()
	defer file.Close()

	summarySheet := "Site Summary"
	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		file.NewSheet(summarySheet)
	}

	summaryHeaders := []string{"URL", "Title", "Analyzed At", "Severity", "Detections", "Status", "Error"}
	summaryRows := make([][]interface{}, 0, len(sites))
	for _, r := range sites {
		status := "analyzed"
		if r.Failed {
			status = "failed"
		} else if len(r.Detections) == 0 {
			status = "clean"
		}
		summaryRows = append(summaryRows, []interface{}{
			r.URL,
			r.Title,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.SeverityScore,
			len(r.Detections),
			status,
			r.FetchError,
		})
	}
	if err := writeSheet(file, summarySheet, summaryHeaders, summaryRows); err != nil {
		return "", fmt.Errorf("write summary sheet: %w", err)
	}

	detailSheet := "Detections"
	file.NewSheet(detailSheet)
	detailHeaders := []string{"URL", "Pattern", "Type", "Confidence", "Location", "Evidence"}
	var detailRows [][]interface{}
	for _, r := range sites {
		for _, d := range r.Detections {
			detailRows = append(detailRows, []interface{}{
				r.URL,
				msges.GetPattern(d.Type).Title,
				string(d.Type),
				d.Confidence,
				d.Location,
				formatEvidence(d.Evidence),
			})
		}
	}
	if err := writeSheet(file, detailSheet, detailHeaders, detailRows); err != nil {
		return "", fmt.Errorf("write detections sheet: %w", err)
	}

	index, _ := file.GetSheetIndex(summarySheet)
	file.SetActiveSheet(index)

	filename := fmt.Sprintf("dpscan_report_%s.xlsx", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, filename)
	if err := file.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

func writeSheet(file *excelize.File, sheetName string, headers []string, rows [][]interface{}) error {
	headerStyle, _ := file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	contentStyle, _ := file.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
	})

	file.SetColWidth(sheetName, "A", "A", 40)
	file.SetColWidth(sheetName, "B", "C", 25)
	file.SetColWidth(sheetName, "D", "E", 15)
	file.SetColWidth(sheetName, "F", "G", 40)

	for idx, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(idx+1, 1)
		file.SetCellValue(sheetName, cell, header)
	}
	headerRange, _ := excelize.CoordinatesToCellName(len(headers), 1)
	file.SetCellStyle(sheetName, "A1", headerRange, headerStyle)

	for rowIdx, row := range rows {
		currentLine := rowIdx + 2
		for colIdx, cellValue := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, currentLine)
			file.SetCellValue(sheetName, cell, cellValue)
		}
		rowRangeStart, _ := excelize.CoordinatesToCellName(1, currentLine)
		rowRangeEnd, _ := excelize.CoordinatesToCellName(len(headers), currentLine)
		file.SetCellStyle(sheetName, rowRangeStart, rowRangeEnd, contentStyle)
	}
	return nil
}
