package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brightpath/adjustments_backend/config"
	"github.com/brightpath/adjustments_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Adjustment is a billing adjustment for one child. The three status fields
// are copied from the enrollment at write time and not kept in sync after.
type Adjustment struct {
	ID                  string          `gorm:"primaryKey;size:36" json:"id"`
	EnrollmentId        *int            `gorm:"index" json:"enrollment_id"`
	Enrollment          *Enrollment     `gorm:"foreignKey:EnrollmentId;constraint:OnDelete:SET NULL" json:"-"`
	DateUpdated         time.Time       `gorm:"not null" json:"date_updated"`
	Centre              string          `gorm:"size:100;not null;default:'';index" json:"centre"`
	Family              string          `gorm:"size:200;not null;default:''" json:"family"`
	ChildName           string          `gorm:"size:200;not null;default:''" json:"child_name"`
	Amount              decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"amount"`
	Note                string          `gorm:"type:text" json:"note"`
	PullingCategory     string          `gorm:"size:100;not null;default:''" json:"pulling_category"`
	PullingInstructions string          `gorm:"type:text" json:"pulling_instructions"`
	StartDate           *time.Time      `gorm:"type:date" json:"start_date"`
	EndDate             *time.Time      `gorm:"type:date" json:"end_date"`
	Recurring           string          `gorm:"size:50;not null;default:''" json:"recurring"`
	Approval            string          `gorm:"size:50;not null;default:''" json:"approval"`
	ChildStatus         string          `gorm:"size:100;not null;default:''" json:"child_status"`
	FamilyStatus        string          `gorm:"size:100;not null;default:''" json:"family_status"`
	BillingCycle        string          `gorm:"size:100;not null;default:''" json:"billing_cycle"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Adjustment) TableName() string {
	return "adjustments"
}

// NewAdjustment is the add/edit payload, bound from form fields or JSON
// keyed by column label.
type NewAdjustment struct {
	Centre              string `form:"Centre" json:"Centre" label:"Centre" validate:"required"`
	Family              string `form:"Family" json:"Family" label:"Family" validate:"required"`
	ChildName           string `form:"Child's Name" json:"Child's Name" label:"Child's Name" validate:"required"`
	Amount              string `form:"Adjustment Amount" json:"Adjustment Amount" label:"Adjustment Amount" validate:"required"`
	Note                string `form:"Note/Description" json:"Note/Description" label:"Note/Description" validate:"required"`
	PullingCategory     string `form:"Pulling Category" json:"Pulling Category" label:"Pulling Category" validate:"required"`
	PullingInstructions string `form:"Pulling Instructions" json:"Pulling Instructions" label:"Pulling Instructions"`
	StartDate           string `form:"Start Date" json:"Start Date" label:"Start Date" validate:"required"`
	EndDate             string `form:"End Date" json:"End Date" label:"End Date" validate:"required"`
	Recurring           string `form:"Adjustment is Recurring?" json:"Adjustment is Recurring?" label:"Adjustment is Recurring?" validate:"required"`
	Approval            string `form:"Approval" json:"Approval" label:"Approval" validate:"required"`
	ChildStatus         string `form:"Child Status" json:"Child Status" label:"Child Status"`
	FamilyStatus        string `form:"Family Status" json:"Family Status" label:"Family Status"`
	BillingCycle        string `form:"Billing Cycle" json:"Billing Cycle" label:"Billing Cycle"`
}

// AdjustmentRecord is the projected row, keys in the fixed column order.
type AdjustmentRecord struct {
	ID                  string      `json:"ID"`
	Centre              string      `json:"Centre"`
	DateUpdated         string      `json:"Date Updated"`
	Family              string      `json:"Family"`
	ChildName           string      `json:"Child's Name"`
	Amount              json.Number `json:"Adjustment Amount"`
	Note                string      `json:"Note/Description"`
	PullingCategory     string      `json:"Pulling Category"`
	PullingInstructions string      `json:"Pulling Instructions"`
	StartDate           string      `json:"Start Date"`
	EndDate             string      `json:"End Date"`
	Recurring           string      `json:"Adjustment is Recurring?"`
	Approval            string      `json:"Approval"`
	ChildStatus         string      `json:"Child Status"`
	FamilyStatus        string      `json:"Family Status"`
	BillingCycle        string      `json:"Billing Cycle"`
}

// newAdjustmentID is swapped in tests.
var newAdjustmentID = uuid.NewString

func (a Adjustment) Record() AdjustmentRecord {
	return AdjustmentRecord{
		ID:                  a.ID,
		Centre:              a.Centre,
		DateUpdated:         utils.FormatDate(&a.DateUpdated),
		Family:              a.Family,
		ChildName:           a.ChildName,
		Amount:              json.Number(a.Amount.StringFixed(2)),
		Note:                a.Note,
		PullingCategory:     a.PullingCategory,
		PullingInstructions: a.PullingInstructions,
		StartDate:           utils.FormatDate(a.StartDate),
		EndDate:             utils.FormatDate(a.EndDate),
		Recurring:           a.Recurring,
		Approval:            a.Approval,
		ChildStatus:         a.ChildStatus,
		FamilyStatus:        a.FamilyStatus,
		BillingCycle:        a.BillingCycle,
	}
}

func (input *NewAdjustment) trim() {
	for _, f := range input.fields() {
		*f = strings.TrimSpace(*f)
	}
}

func (input *NewAdjustment) fields() []*string {
	return []*string{
		&input.Centre, &input.Family, &input.ChildName, &input.Amount, &input.Note,
		&input.PullingCategory, &input.PullingInstructions, &input.StartDate, &input.EndDate,
		&input.Recurring, &input.Approval, &input.ChildStatus, &input.FamilyStatus, &input.BillingCycle,
	}
}

// prepare applies the caller's overrides before reconciliation: a regular
// user's center and approval are not theirs to choose, and a Pull carries
// no pulling instructions.
func (input *NewAdjustment) prepare(principal Principal) {
	input.trim()
	if !principal.IsAdmin() {
		input.Centre = principal.Center
		input.Approval = ApprovalPending
	}
	if input.PullingCategory == PullingCategoryPull {
		input.PullingInstructions = ""
	}
}

// assign copies a validated payload onto a.
func (a *Adjustment) assign(input NewAdjustment, enrollmentId *int, now time.Time) {
	amount, _ := utils.ParseDecimal(input.Amount)
	start, _ := utils.ParseISODate(input.StartDate)
	end, _ := utils.ParseISODate(input.EndDate)
	start, end = utils.DateOnly(start), utils.DateOnly(end)

	a.EnrollmentId = enrollmentId
	a.Enrollment = nil
	a.DateUpdated = now
	a.Centre = input.Centre
	a.Family = input.Family
	a.ChildName = input.ChildName
	a.Amount = amount
	a.Note = input.Note
	a.PullingCategory = input.PullingCategory
	a.PullingInstructions = input.PullingInstructions
	a.StartDate = &start
	a.EndDate = &end
	a.Recurring = input.Recurring
	a.Approval = input.Approval
	a.ChildStatus = input.ChildStatus
	a.FamilyStatus = input.FamilyStatus
	a.BillingCycle = input.BillingCycle
}

// checkOwnership lets a regular user touch a record only through its
// enrollment's center. Unlinked records are admin-only.
func (a Adjustment) checkOwnership(principal Principal) error {
	if principal.IsAdmin() {
		return nil
	}
	if a.Enrollment == nil || !principal.CanAccessCenter(a.Enrollment.Centre) {
		return utils.ErrForbidden
	}
	return nil
}

// writeAdjustment reconciles, validates and persists input onto a in one
// transaction. A failure anywhere leaves neither the adjustment nor a newly
// created enrollment behind.
func writeAdjustment(ctx context.Context, principal Principal, a *Adjustment, input NewAdjustment, isNew bool) error {
	db := config.GetDB()
	now := time.Now()
	return withEnrollmentLock(ctx, input.Centre, input.ChildName, func() error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			resolution, err := ResolveOrCreateEnrollment(ctx, tx, input)
			if err != nil {
				return err
			}
			merged := ApplyEnrollmentFields(input, resolution)
			if err := ValidateAdjustment(&merged, principal.Role); err != nil {
				return err
			}

			enrollmentId := resolution.EnrollmentID()
			if enrollmentId == nil && !isNew {
				enrollmentId = a.EnrollmentId
			}
			a.assign(merged, enrollmentId, now)
			if isNew {
				return tx.Omit(clause.Associations).Create(a).Error
			}
			// an update, never an upsert: a row deleted since it was read stays deleted
			result := tx.Model(a).Select("*").Omit("id", "created_at", clause.Associations).Updates(a)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return utils.ErrorRecordNotFound
			}
			return nil
		})
	})
}

func CreateAdjustment(ctx context.Context, principal Principal, input *NewAdjustment) (*Adjustment, error) {
	if err := requireSession(principal); err != nil {
		return nil, err
	}
	payload := *input
	payload.prepare(principal)

	adjustment := Adjustment{ID: newAdjustmentID()}
	if err := writeAdjustment(ctx, principal, &adjustment, payload, true); err != nil {
		return nil, translateWriteError("create adjustment", adjustment.ID, err)
	}
	return &adjustment, nil
}

func UpdateAdjustment(ctx context.Context, principal Principal, id string, input *NewAdjustment) (*Adjustment, error) {
	if err := requireSession(principal); err != nil {
		return nil, err
	}
	adjustment, err := fetchAdjustment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := adjustment.checkOwnership(principal); err != nil {
		return nil, err
	}

	payload := *input
	payload.prepare(principal)
	if err := writeAdjustment(ctx, principal, adjustment, payload, false); err != nil {
		return nil, translateWriteError("update adjustment", id, err)
	}
	return adjustment, nil
}

func DeleteAdjustment(ctx context.Context, principal Principal, id string) error {
	if err := requireSession(principal); err != nil {
		return err
	}
	adjustment, err := fetchAdjustment(ctx, id)
	if err != nil {
		return err
	}
	if err := adjustment.checkOwnership(principal); err != nil {
		return err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", adjustment.ID).Delete(&Adjustment{}).Error; err != nil {
		config.LogError(config.GetLogger(), "adjustment.go", "DeleteAdjustment", "delete", id, err)
		return utils.NewStorageError("delete adjustment", err)
	}
	return nil
}

// GetAdjustment returns one record under the same ownership rule as edit.
func GetAdjustment(ctx context.Context, principal Principal, id string) (*Adjustment, error) {
	if err := requireSession(principal); err != nil {
		return nil, err
	}
	adjustment, err := fetchAdjustment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := adjustment.checkOwnership(principal); err != nil {
		return nil, err
	}
	return adjustment, nil
}

// BulkUpdateApproval sets approval on every listed record that exists.
// Admin only. Unknown ids are skipped; none at all is NotFound.
func BulkUpdateApproval(ctx context.Context, principal Principal, ids []string, status string) (int64, error) {
	if err := requireSession(principal); err != nil {
		return 0, err
	}
	if !principal.IsAdmin() {
		return 0, utils.ErrForbidden
	}
	status = strings.TrimSpace(status)
	if !isBulkApprovalStatus(status) {
		return 0, utils.NewRequestError("Invalid status value")
	}
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}
	cleaned = utils.UniqueSlice(cleaned)
	if len(cleaned) == 0 {
		return 0, utils.NewRequestError("No record IDs provided")
	}

	db := config.GetDB()
	var matched int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Adjustment{}).Where("id IN ?", cleaned).Count(&matched).Error; err != nil {
			return err
		}
		if matched == 0 {
			return nil
		}
		return tx.Model(&Adjustment{}).Where("id IN ?", cleaned).Updates(map[string]interface{}{
			"approval":     status,
			"date_updated": time.Now(),
		}).Error
	})
	if err != nil {
		config.LogError(config.GetLogger(), "adjustment.go", "BulkUpdateApproval", "update", cleaned, err)
		return 0, utils.NewStorageError("bulk approval", err)
	}
	if matched == 0 {
		return 0, utils.ErrorRecordNotFound
	}
	return matched, nil
}

func isBulkApprovalStatus(status string) bool {
	for _, s := range BulkApprovalStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func fetchAdjustment(ctx context.Context, id string) (*Adjustment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, utils.ErrorRecordNotFound
	}
	adjustment, err := utils.FetchSingleModel[Adjustment](ctx, config.GetDB(), id, "Enrollment")
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, err
		}
		return nil, utils.NewStorageError("get adjustment", err)
	}
	return adjustment, nil
}

func translateWriteError(op string, id string, err error) error {
	var verr *utils.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, utils.ErrorRecordNotFound):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		config.LogError(config.GetLogger(), "adjustment.go", op, "duplicate key", id, err)
		return fmt.Errorf("%s %s: %w", op, id, utils.ErrConflict)
	default:
		config.LogError(config.GetLogger(), "adjustment.go", op, "write", id, err)
		return utils.NewStorageError(op, err)
	}
}
