package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"garagelog/internal/config"
	"garagelog/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Service History"

// Exporter writes the service history to timestamped Excel files under the
// configured exports directory.
type Exporter struct {
	cfg    config.ExportConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewExporter(cfg config.ExportConfig, logger *zerolog.Logger) *Exporter {
	return &Exporter{cfg: cfg, logger: logger, now: time.Now}
}

// Export writes one row per record plus a totals row and returns the path
// of the created file.
func (e *Exporter) Export(records []models.ServiceRecord) (string, error) {
	if err := os.MkdirAll(e.cfg.Path, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"ID", "Owner", "Phone", "Vehicle Model", "Vehicle ID",
		"Service Date", "Service Type", "Description", "Mileage", "Cost",
		"Next Service", "Mechanic ID",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	var totalCost float64
	for i, rec := range records {
		row := i + 2
		next := ""
		if rec.NextServiceDate != nil {
			next = rec.NextServiceDate.Format(models.DateLayout)
		}
		values := []any{
			rec.ID,
			rec.OwnerName,
			rec.OwnerPhoneNumber,
			rec.VehicleModel,
			rec.VehicleID,
			rec.ServiceDate.Format(models.DateLayout),
			rec.ServiceType,
			rec.Description,
			rec.Mileage,
			rec.Cost,
			next,
			rec.MechanicID,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
		totalCost += rec.Cost
	}

	summaryRow := len(records) + 3
	summaryStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	labelCell, _ := excelize.CoordinatesToCellName(1, summaryRow)
	_ = f.SetCellValue(sheetName, labelCell, fmt.Sprintf("Total (%d records)", len(records)))
	_ = f.SetCellStyle(sheetName, labelCell, labelCell, summaryStyle)
	costCell, _ := excelize.CoordinatesToCellName(10, summaryRow)
	_ = f.SetCellValue(sheetName, costCell, totalCost)
	_ = f.SetCellStyle(sheetName, costCell, costCell, summaryStyle)

	_ = f.SetColWidth(sheetName, "A", "E", 22)
	_ = f.SetColWidth(sheetName, "F", "L", 16)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("service_history_%s.xlsx", e.now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.cfg.Path, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save export file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("records", len(records)).Msg("service history exported")
	return filePath, nil
}
