package models_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brightpath/adjustments_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const enrollmentCSV = "\ufeffCentre,Family,Child's Name,Child Status,Family Status,Billing Cycle\n" +
	"Andover,Smith,Tom Smith,Active,Current,Weekly\n" +
	",,,,,\n" +
	"Timnath,Doe,Jane Doe,Active,New,Monthly\n"

const adjustmentsCSV = "ID,Centre,Date Updated,Family,Child's Name,Adjustment Amount,Note/Description,Pulling Category,Pulling Instructions,Start Date,End Date,Adjustment is Recurring?,Approval,Child Status,Family Status,Billing Cycle\n" +
	"a-1,Andover,2024-01-05,Smith,tom smith,\"$1,200.00\",tuition,Hold,,2024-01-01,2024-01-31,No,Approved,,,\n" +
	"a-2,Loveland,05-01-2024,Ng,Sam Ng,oops,misc,Pull,,,,No,,,,\n"

const usersJSON = `[
	{"username": "admin", "password": "admin123", "role": "Admin", "center": "ALL"},
	{"username": "andover", "password": "pw", "role": "", "center": "Andover"}
]`

func writeFile(t *testing.T, dir string, name string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestImportStartupData(t *testing.T) {
	setupTestDB(t)
	dir := t.TempDir()
	writeFile(t, dir, "users.json", usersJSON)
	writeFile(t, dir, "ChildEnrollment.csv", enrollmentCSV)
	writeFile(t, dir, "Adjustments.csv", adjustmentsCSV)

	result, err := models.ImportStartupData(testCtx, dir)
	require.NoError(t, err)
	assert.Equal(t, models.ImportResult{Users: 2, Enrollments: 2, Adjustments: 2}, result)

	user, err := models.GetUserByUsername(testCtx, "andover")
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleUser, user.Role)

	linked, err := models.GetAdjustment(testCtx, admin, "a-1")
	require.NoError(t, err)
	require.NotNil(t, linked.Enrollment)
	assert.Equal(t, "Tom Smith", linked.Enrollment.ChildName)
	assert.Equal(t, "1200.00", linked.Record().Amount.String())
	assert.Equal(t, "2024-01-05", linked.Record().DateUpdated)

	// unknown children get a roster entry of their own
	created, err := models.GetAdjustment(testCtx, admin, "a-2")
	require.NoError(t, err)
	require.NotNil(t, created.EnrollmentId)
	assert.Equal(t, "0.00", created.Record().Amount.String())
	assert.Equal(t, "2024-01-05", created.Record().DateUpdated)
	assert.Empty(t, created.Record().StartDate)
	assert.Equal(t, int64(3), countRows(t, &models.Enrollment{}))

	// tables that already have rows are left alone
	again, err := models.ImportStartupData(testCtx, dir)
	require.NoError(t, err)
	assert.Equal(t, models.ImportResult{}, again)
}

func TestImportSkipsMissingFiles(t *testing.T) {
	setupTestDB(t)

	result, err := models.ImportStartupData(testCtx, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, models.ImportResult{}, result)
}

func TestImportRejectsRosterWithoutRequiredColumns(t *testing.T) {
	setupTestDB(t)
	dir := t.TempDir()
	writeFile(t, dir, "ChildEnrollment.csv", "Centre,Child's Name\nAndover,Tom Smith\n")

	result, err := models.ImportStartupData(testCtx, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns: Family, Child Status, Family Status, Billing Cycle")
	assert.Zero(t, result.Enrollments)
	assert.Zero(t, countRows(t, &models.Enrollment{}))
}
