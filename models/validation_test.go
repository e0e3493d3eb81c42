package models_test

import (
	"errors"
	"testing"

	"github.com/brightpath/adjustments_backend/models"
	"github.com/brightpath/adjustments_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAdjustmentCollectsEveryProblem(t *testing.T) {
	input := &models.NewAdjustment{Amount: "abc", StartDate: "2024-13-01", EndDate: "soon"}
	err := models.ValidateAdjustment(input, models.UserRoleAdmin)

	var verr *utils.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{
		models.ColCentre,
		models.ColFamily,
		models.ColChildName,
		models.ColNote,
		models.ColPullingCategory,
		models.ColRecurring,
		models.ColApproval,
		"Adjustment Amount (must be number)",
		"Start Date (invalid date, use YYYY-MM-DD)",
		"End Date (invalid date, use YYYY-MM-DD)",
	}, verr.Problems)
	assert.Contains(t, err.Error(), "Missing/invalid: Centre, Family")
}

func TestValidateAdjustmentForcesPendingForUsers(t *testing.T) {
	input := validInput()
	input.Approval = ""
	require.NoError(t, models.ValidateAdjustment(input, models.UserRoleUser))
	assert.Equal(t, models.ApprovalPending, input.Approval)

	input = validInput()
	input.Approval = ""
	err := models.ValidateAdjustment(input, models.UserRoleAdmin)
	var verr *utils.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{models.ColApproval}, verr.Problems)
}

func TestValidateAdjustmentAcceptsDateTimes(t *testing.T) {
	input := validInput()
	input.StartDate = "2024-01-01T08:30:00"
	input.EndDate = "2024-01-01"
	assert.NoError(t, models.ValidateAdjustment(input, models.UserRoleAdmin))
}

func TestPrincipalReadScope(t *testing.T) {
	center, scoped := admin.ReadScope("")
	assert.False(t, scoped)
	assert.Empty(t, center)

	_, scoped = admin.ReadScope("all")
	assert.False(t, scoped)

	center, scoped = admin.ReadScope(" Timnath ")
	assert.True(t, scoped)
	assert.Equal(t, "Timnath", center)

	center, scoped = andoverUser.ReadScope("Timnath")
	assert.True(t, scoped)
	assert.Equal(t, "Andover", center)

	assert.True(t, andoverUser.CanAccessCenter(" andover"))
	assert.False(t, andoverUser.CanAccessCenter("Timnath"))
	assert.True(t, admin.CanAccessCenter("Timnath"))
}
