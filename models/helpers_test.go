package models_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/brightpath/adjustments_backend/config"
	"github.com/brightpath/adjustments_backend/models"
	"github.com/stretchr/testify/require"
)

var (
	admin       = models.NewPrincipal("admin", "admin", models.AllCenters)
	andoverUser = models.NewPrincipal("andover", "user", "Andover")
	timnathUser = models.NewPrincipal("timnath", "User", "Timnath")
	anonymous   = models.Principal{}
	testCtx     = context.Background()
)

// setupTestDB points the global DB at a fresh sqlite file.
func setupTestDB(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "sqlite:"+filepath.Join(t.TempDir(), "adjustments.db"))
	t.Setenv("REDIS_ADDRESS", "")
	t.Setenv("EXPORT_ARCHIVE_BUCKET", "")
	t.Setenv("PASSWORD_HASHING", "")

	require.NoError(t, config.ConnectDatabase())
	t.Cleanup(config.CloseDatabase)
	require.NoError(t, models.MigrateTable())
}

func validInput() *models.NewAdjustment {
	return &models.NewAdjustment{
		Centre:          "Andover",
		Family:          "Smith",
		ChildName:       "Tom Smith",
		Amount:          "50.00",
		Note:            "test",
		PullingCategory: "Hold",
		StartDate:       "2024-01-01",
		EndDate:         "2024-01-31",
		Recurring:       "No",
		Approval:        "Approved",
	}
}

func countRows(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, config.GetDB().Model(model).Count(&n).Error)
	return n
}
