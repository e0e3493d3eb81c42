package models_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/brightpath/adjustments_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSummarize(t *testing.T) {
	rows := []models.Adjustment{
		{Approval: "Approved", Amount: decimal.RequireFromString("1000")},
		{Approval: " approved", Amount: decimal.RequireFromString("234.5")},
		{Approval: "PENDING", Amount: decimal.RequireFromString("-10")},
		{Approval: ""},
		{Approval: "Rejected"},
		{Approval: "no"},
		{Approval: "Not Approved"},
		{Approval: "On hold"},
	}
	summary := models.Summarize(rows)
	assert.Equal(t, models.AdjustmentSummary{
		Total:                 8,
		ApprovedCount:         2,
		PendingCount:          1,
		NotApprovedCount:      4,
		TotalAdjustmentAmount: "$1,224.50",
	}, summary)

	assert.Equal(t, "$0.00", models.Summarize(nil).TotalAdjustmentAmount)
}

func seedTwoCenters(t *testing.T) {
	t.Helper()
	_, err := models.CreateAdjustment(testCtx, admin, validInput())
	require.NoError(t, err)

	input := validInput()
	input.Centre = "Timnath"
	input.ChildName = "Jane Doe"
	input.Amount = "25"
	_, err = models.CreateAdjustment(testCtx, admin, input)
	require.NoError(t, err)
}

func TestListingIsCenterScoped(t *testing.T) {
	setupTestDB(t)
	seedTwoCenters(t)

	all, err := models.ListAdjustments(testCtx, admin, models.AllCenters)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)
	assert.Equal(t, []string{"Andover", "Timnath"}, all.Centers)
	assert.Equal(t, "$75.00", all.TotalAdjustmentAmount)
	assert.Empty(t, all.SelectedCenter)

	// the filter a regular user sends is ignored
	own, err := models.ListAdjustments(testCtx, timnathUser, "Andover")
	require.NoError(t, err)
	require.Equal(t, 1, own.Total)
	assert.Equal(t, "Timnath", own.Records[0].Centre)
	assert.Equal(t, []string{"Timnath"}, own.Centers)
	assert.Equal(t, "Timnath", own.SelectedCenter)
	assert.Equal(t, models.UserRoleUser, own.Role)

	// case and padding don't matter
	narrowed, err := models.ListAdjustments(testCtx, admin, " andover ")
	require.NoError(t, err)
	assert.Equal(t, 1, narrowed.Total)
	assert.Equal(t, "andover", narrowed.SelectedCenter)
}

func TestExportOfEveryCenterIsNamedAll(t *testing.T) {
	setupTestDB(t)
	seedTwoCenters(t)

	now := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	for _, filter := range []string{"", "ALL", " all "} {
		file, err := models.ExportAdjustments(testCtx, admin, filter, now)
		require.NoError(t, err)
		assert.Equal(t, "Adjustments_All_20240203-040506.xlsx", file.Filename, filter)
	}
}

func TestListChildren(t *testing.T) {
	setupTestDB(t)
	seedTwoCenters(t)

	all, err := models.ListChildren(testCtx, admin, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Jane Doe", "Tom Smith"}, all.Children)
	assert.Equal(t, []string{"Andover", "Timnath"}, all.Centers)

	narrowed, err := models.ListChildren(testCtx, admin, "Timnath")
	require.NoError(t, err)
	assert.Equal(t, []string{"Jane Doe"}, narrowed.Children)
	assert.Equal(t, []string{"Andover", "Timnath"}, narrowed.Centers)

	own, err := models.ListChildren(testCtx, andoverUser, "Timnath")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tom Smith"}, own.Children)
	assert.Equal(t, []string{"Smith"}, own.Families)
	assert.Equal(t, []string{"Andover"}, own.Centers)
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	assert.Equal(t, "Adjustments_All_20240203-040506.xlsx", models.ExportFilename("", now))
	assert.Equal(t, "Adjustments_Fort Collins_20240203-040506.xlsx", models.ExportFilename(" Fort Collins ", now))
	assert.Equal(t, "Adjustments_A-B_20240203-040506.xlsx", models.ExportFilename("A/B", now))
}

func TestExportMatchesListing(t *testing.T) {
	setupTestDB(t)
	seedTwoCenters(t)
	t.Setenv("EXPORT_ARCHIVE_BUCKET", "exports-bucket")

	var archived []string
	t.Cleanup(models.SetArchiveExportForTest(func(ctx context.Context, bucket string, object string, data []byte, contentType string) error {
		archived = append(archived, bucket+"/"+object)
		return nil
	}))

	now := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	file, err := models.ExportAdjustments(testCtx, andoverUser, "", now)
	require.NoError(t, err)
	assert.Equal(t, "Adjustments_Andover_20240203-040506.xlsx", file.Filename)
	assert.Equal(t, []string{"exports-bucket/exports/" + file.Filename}, archived)

	f, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Adjustments"}, f.GetSheetList())
	rows, err := f.GetRows("Adjustments")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.AdjustmentColumns, rows[0])
	assert.Equal(t, "Andover", rows[1][1])
	assert.Equal(t, "Tom Smith", rows[1][4])
}

func TestExportSurvivesArchiveFailure(t *testing.T) {
	setupTestDB(t)
	t.Setenv("EXPORT_ARCHIVE_BUCKET", "exports-bucket")
	t.Cleanup(models.SetArchiveExportForTest(func(ctx context.Context, bucket string, object string, data []byte, contentType string) error {
		return assert.AnError
	}))

	file, err := models.ExportAdjustments(testCtx, admin, "", time.Now())
	require.NoError(t, err)
	assert.Contains(t, file.Filename, "Adjustments_All_")
}
