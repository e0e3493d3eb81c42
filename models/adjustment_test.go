package models_test

import (
	"errors"
	"testing"
	"time"

	"github.com/brightpath/adjustments_backend/config"
	"github.com/brightpath/adjustments_backend/models"
	"github.com/brightpath/adjustments_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var longAgo = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// backdate stamps date_updated of ids far in the past.
func backdate(t *testing.T, ids ...string) {
	t.Helper()
	require.NoError(t, config.GetDB().Model(&models.Adjustment{}).Where("id IN ?", ids).UpdateColumn("date_updated", longAgo).Error)
}

func storedAdjustment(t *testing.T, id string) models.Adjustment {
	t.Helper()
	var a models.Adjustment
	require.NoError(t, config.GetDB().Where("id = ?", id).Take(&a).Error)
	return a
}

func TestAdminAddShowsUpInListing(t *testing.T) {
	setupTestDB(t)

	adjustment, err := models.CreateAdjustment(testCtx, admin, validInput())
	require.NoError(t, err)
	require.NotEmpty(t, adjustment.ID)
	require.NotNil(t, adjustment.EnrollmentId)

	listing, err := models.ListAdjustments(testCtx, admin, "Andover")
	require.NoError(t, err)
	assert.Equal(t, 1, listing.Total)
	assert.Equal(t, 1, listing.ApprovedCount)
	assert.Equal(t, "$50.00", listing.TotalAdjustmentAmount)
	require.Len(t, listing.Records, 1)

	record := listing.Records[0]
	assert.Equal(t, adjustment.ID, record.ID)
	assert.Equal(t, "50.00", record.Amount.String())
	assert.Equal(t, "2024-01-01", record.StartDate)
	assert.Equal(t, "2024-01-31", record.EndDate)
	assert.Equal(t, "Andover", listing.SelectedCenter)
}

func TestEndBeforeStartLeavesNothingBehind(t *testing.T) {
	setupTestDB(t)

	input := validInput()
	input.EndDate = "2023-12-31"
	_, err := models.CreateAdjustment(testCtx, admin, input)

	var verr *utils.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Contains(t, verr.Problems, "End Date must be on or after Start Date")
	assert.Zero(t, countRows(t, &models.Adjustment{}))
	assert.Zero(t, countRows(t, &models.Enrollment{}))
}

func TestRegularUserCannotPickCenterOrApproval(t *testing.T) {
	setupTestDB(t)

	input := validInput()
	input.Centre = "Timnath"
	input.Approval = models.ApprovalApproved
	adjustment, err := models.CreateAdjustment(testCtx, andoverUser, input)
	require.NoError(t, err)
	assert.Equal(t, "Andover", adjustment.Centre)
	assert.Equal(t, models.ApprovalPending, adjustment.Approval)

	input.Approval = models.ApprovalNotApproved
	edited, err := models.UpdateAdjustment(testCtx, andoverUser, adjustment.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Andover", edited.Centre)
	assert.Equal(t, models.ApprovalPending, edited.Approval)
}

func TestPullClearsPullingInstructions(t *testing.T) {
	setupTestDB(t)

	input := validInput()
	input.PullingCategory = models.PullingCategoryPull
	input.PullingInstructions = "pull from March invoice"
	adjustment, err := models.CreateAdjustment(testCtx, admin, input)
	require.NoError(t, err)
	assert.Empty(t, adjustment.PullingInstructions)
}

func TestEnrollmentIsReusedAndItsStatusesWin(t *testing.T) {
	setupTestDB(t)

	first := validInput()
	first.ChildStatus = "Active"
	first.FamilyStatus = "Current"
	first.BillingCycle = "Weekly"
	a, err := models.CreateAdjustment(testCtx, admin, first)
	require.NoError(t, err)

	second := validInput()
	second.Centre = " andover "
	second.ChildName = "tom  smith"
	second.ChildStatus = "Withdrawn"
	b, err := models.CreateAdjustment(testCtx, admin, second)
	require.NoError(t, err)

	assert.Equal(t, int64(1), countRows(t, &models.Enrollment{}))
	require.NotNil(t, b.EnrollmentId)
	assert.Equal(t, *a.EnrollmentId, *b.EnrollmentId)
	assert.Equal(t, "Active", b.ChildStatus)
	assert.Equal(t, "Current", b.FamilyStatus)
	assert.Equal(t, "Weekly", b.BillingCycle)
}

func TestChildDetailsRoundTrip(t *testing.T) {
	setupTestDB(t)

	input := validInput()
	input.Centre = "Timnath"
	input.ChildName = "Jane Doe"
	input.ChildStatus = "Active"
	input.FamilyStatus = "New"
	input.BillingCycle = "Monthly"
	_, err := models.CreateAdjustment(testCtx, admin, input)
	require.NoError(t, err)

	details, err := models.GetChildDetails(testCtx, admin, "Timnath", "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentDetails{ChildStatus: "Active", FamilyStatus: "New", BillingCycle: "Monthly"}, *details)

	// a regular user only ever looks in their own center
	details, err = models.GetChildDetails(testCtx, andoverUser, "Timnath", "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentDetails{}, *details)
}

func TestOwnershipFollowsEnrollmentCenter(t *testing.T) {
	setupTestDB(t)

	adjustment, err := models.CreateAdjustment(testCtx, admin, validInput())
	require.NoError(t, err)

	_, err = models.GetAdjustment(testCtx, timnathUser, adjustment.ID)
	assert.ErrorIs(t, err, utils.ErrForbidden)
	_, err = models.UpdateAdjustment(testCtx, timnathUser, adjustment.ID, validInput())
	assert.ErrorIs(t, err, utils.ErrForbidden)
	assert.ErrorIs(t, models.DeleteAdjustment(testCtx, timnathUser, adjustment.ID), utils.ErrForbidden)

	got, err := models.GetAdjustment(testCtx, andoverUser, adjustment.ID)
	require.NoError(t, err)
	assert.Equal(t, adjustment.ID, got.ID)
}

func TestUnlinkedRecordIsAdminOnly(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, config.GetDB().Create(&models.Adjustment{ID: "orphan", Centre: "Andover"}).Error)

	_, err := models.GetAdjustment(testCtx, andoverUser, "orphan")
	assert.ErrorIs(t, err, utils.ErrForbidden)
	_, err = models.GetAdjustment(testCtx, admin, "orphan")
	assert.NoError(t, err)
}

func TestEditOverwritesEveryField(t *testing.T) {
	setupTestDB(t)

	adjustment, err := models.CreateAdjustment(testCtx, admin, validInput())
	require.NoError(t, err)
	backdate(t, adjustment.ID)

	input := validInput()
	input.Amount = "-12.5"
	input.Note = "credit"
	input.Approval = models.ApprovalNotApproved
	edited, err := models.UpdateAdjustment(testCtx, admin, adjustment.ID, input)
	require.NoError(t, err)

	got, err := models.GetAdjustment(testCtx, admin, adjustment.ID)
	require.NoError(t, err)
	assert.Equal(t, edited.ID, got.ID)
	assert.Equal(t, "-12.50", got.Record().Amount.String())
	assert.Equal(t, "credit", got.Note)
	assert.Equal(t, models.ApprovalNotApproved, got.Approval)
	assert.True(t, got.DateUpdated.After(longAgo), "date updated %v", got.DateUpdated)
}

func TestEditOfRowDeletedMidWriteIsNotFound(t *testing.T) {
	setupTestDB(t)

	adjustment, err := models.CreateAdjustment(testCtx, admin, validInput())
	require.NoError(t, err)

	// another request removes the row between the read and the write
	callbacks := config.GetDB().Callback().Update()
	require.NoError(t, callbacks.Before("gorm:update").Register("test:delete_first", func(tx *gorm.DB) {
		if tx.Statement.Table == "adjustments" {
			tx.Session(&gorm.Session{NewDB: true}).Exec("DELETE FROM adjustments WHERE id = ?", adjustment.ID)
		}
	}))
	t.Cleanup(func() { _ = callbacks.Remove("test:delete_first") })

	input := validInput()
	input.Note = "edited"
	_, err = models.UpdateAdjustment(testCtx, admin, adjustment.ID, input)
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)

	var notes []string
	require.NoError(t, config.GetDB().Model(&models.Adjustment{}).Pluck("note", &notes).Error)
	assert.NotContains(t, notes, "edited")
}

func TestDeleteUnknownIsNotFound(t *testing.T) {
	setupTestDB(t)

	assert.ErrorIs(t, models.DeleteAdjustment(testCtx, admin, "missing"), utils.ErrorRecordNotFound)

	adjustment, err := models.CreateAdjustment(testCtx, admin, validInput())
	require.NoError(t, err)
	require.NoError(t, models.DeleteAdjustment(testCtx, admin, adjustment.ID))
	assert.Zero(t, countRows(t, &models.Adjustment{}))
	assert.Equal(t, int64(1), countRows(t, &models.Enrollment{}))
}

func TestDuplicateIdIsConflict(t *testing.T) {
	setupTestDB(t)
	t.Cleanup(models.SetNewAdjustmentIDForTest(func() string { return "fixed-id" }))

	_, err := models.CreateAdjustment(testCtx, admin, validInput())
	require.NoError(t, err)
	_, err = models.CreateAdjustment(testCtx, admin, validInput())
	assert.ErrorIs(t, err, utils.ErrConflict)
	assert.Equal(t, int64(1), countRows(t, &models.Adjustment{}))
}

func TestWritesNeedASession(t *testing.T) {
	setupTestDB(t)

	_, err := models.CreateAdjustment(testCtx, anonymous, validInput())
	assert.ErrorIs(t, err, utils.ErrUnauthenticated)
	_, err = models.ListAdjustments(testCtx, anonymous, "")
	assert.ErrorIs(t, err, utils.ErrUnauthenticated)
}

func TestBulkApproval(t *testing.T) {
	setupTestDB(t)

	a, err := models.CreateAdjustment(testCtx, andoverUser, validInput())
	require.NoError(t, err)
	b, err := models.CreateAdjustment(testCtx, andoverUser, validInput())
	require.NoError(t, err)
	untouchedInput := validInput()
	untouchedInput.Approval = models.ApprovalNotApproved
	c, err := models.CreateAdjustment(testCtx, admin, untouchedInput)
	require.NoError(t, err)

	t.Run("invalid status updates nothing", func(t *testing.T) {
		_, err := models.BulkUpdateApproval(testCtx, admin, []string{a.ID}, "Done")
		var verr *utils.ValidationError
		require.True(t, errors.As(err, &verr))
		got, err := models.GetAdjustment(testCtx, admin, a.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalPending, got.Approval)
	})

	t.Run("admin only", func(t *testing.T) {
		_, err := models.BulkUpdateApproval(testCtx, andoverUser, []string{a.ID}, models.ApprovalApproved)
		assert.ErrorIs(t, err, utils.ErrForbidden)
	})

	t.Run("empty ids", func(t *testing.T) {
		_, err := models.BulkUpdateApproval(testCtx, admin, []string{" "}, models.ApprovalApproved)
		var verr *utils.ValidationError
		assert.True(t, errors.As(err, &verr))
	})

	t.Run("no match", func(t *testing.T) {
		_, err := models.BulkUpdateApproval(testCtx, admin, []string{"nope"}, models.ApprovalApproved)
		assert.ErrorIs(t, err, utils.ErrorRecordNotFound)
	})

	t.Run("unknown ids are skipped", func(t *testing.T) {
		backdate(t, a.ID, b.ID, c.ID)
		updated, err := models.BulkUpdateApproval(testCtx, admin, []string{a.ID, b.ID, "nope"}, models.ApprovalApproved)
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated)

		listing, err := models.ListAdjustments(testCtx, admin, "")
		require.NoError(t, err)
		assert.Equal(t, 2, listing.ApprovedCount)
		assert.Equal(t, 1, listing.NotApprovedCount)

		for _, id := range []string{a.ID, b.ID} {
			got := storedAdjustment(t, id)
			assert.Equal(t, models.ApprovalApproved, got.Approval)
			assert.True(t, got.DateUpdated.After(longAgo), "date updated %v", got.DateUpdated)
		}
		other := storedAdjustment(t, c.ID)
		assert.Equal(t, models.ApprovalNotApproved, other.Approval)
		assert.Equal(t, longAgo.Unix(), other.DateUpdated.Unix())
	})
}
