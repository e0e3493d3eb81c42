package models

import "context"

// SetNewAdjustmentIDForTest replaces the id generator and returns a restore func.
func SetNewAdjustmentIDForTest(fn func() string) func() {
	old := newAdjustmentID
	newAdjustmentID = fn
	return func() { newAdjustmentID = old }
}

// SetArchiveExportForTest replaces the GCS upload and returns a restore func.
func SetArchiveExportForTest(fn func(ctx context.Context, bucket string, object string, data []byte, contentType string) error) func() {
	old := archiveExport
	archiveExport = fn
	return func() { archiveExport = old }
}
