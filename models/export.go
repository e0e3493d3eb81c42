package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brightpath/adjustments_backend/config"
	"github.com/brightpath/adjustments_backend/utils"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Adjustments"

type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// archiveExport is swapped in tests.
var archiveExport = utils.UploadBytesToGCS

// ExportFilename is Adjustments_<center or All>_<YYYYMMDD-HHMMSS>.xlsx.
func ExportFilename(center string, now time.Time) string {
	center = strings.TrimSpace(center)
	if center == "" {
		center = "All"
	}
	center = strings.NewReplacer("/", "-", "\\", "-", "\"", "").Replace(center)
	return fmt.Sprintf("Adjustments_%s_%s.xlsx", center, now.Format("20060102-150405"))
}

// ExportAdjustments writes the same records ListAdjustments would show to a
// one-sheet workbook. With EXPORT_ARCHIVE_BUCKET set a copy goes to GCS;
// archive failures are logged and never fail the export.
func ExportAdjustments(ctx context.Context, principal Principal, centerFilter string, now time.Time) (*ExportFile, error) {
	adjustments, selected, err := loadAdjustments(ctx, principal, centerFilter)
	if err != nil {
		return nil, err
	}

	records := make([]AdjustmentRecord, 0, len(adjustments))
	for _, a := range adjustments {
		records = append(records, a.Record())
	}
	f, err := BuildAdjustmentWorkbook(records)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	file := &ExportFile{
		Filename:    ExportFilename(selected, now),
		ContentType: utils.XlsxContentType,
		Content:     buf.Bytes(),
	}

	if bucket := config.ExportArchiveBucket(); bucket != "" {
		objectName := "exports/" + file.Filename
		if err := archiveExport(ctx, bucket, objectName, file.Content, file.ContentType); err != nil {
			config.LogError(config.GetLogger(), "export.go", "ExportAdjustments", "archive to gcs", objectName, err)
		} else {
			config.GetLogger().WithFields(logrus.Fields{
				"field":  "ExportAdjustments",
				"bucket": bucket,
				"object": objectName,
				"user":   principal.Username,
			}).Info("export archived")
		}
	}
	return file, nil
}

// BuildAdjustmentWorkbook lays records out under a header row in the fixed
// column order. Amounts are written as numbers.
func BuildAdjustmentWorkbook(records []AdjustmentRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, 0, len(AdjustmentColumns))
	for _, col := range AdjustmentColumns {
		header = append(header, col)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, r := range records {
		amount, err := r.Amount.Float64()
		if err != nil {
			amount = 0
		}
		row := []interface{}{
			r.ID, r.Centre, r.DateUpdated, r.Family, r.ChildName, amount,
			r.Note, r.PullingCategory, r.PullingInstructions, r.StartDate, r.EndDate,
			r.Recurring, r.Approval, r.ChildStatus, r.FamilyStatus, r.BillingCycle,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}
