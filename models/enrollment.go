package models

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/brightpath/adjustments_backend/config"
	"github.com/brightpath/adjustments_backend/utils"
	"gorm.io/gorm"
)

// Enrollment is one child on the roster of one center.
// (centre_key, child_key) is the lookup identity; it is indexed, not unique.
type Enrollment struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Centre       string    `gorm:"size:100;not null;default:''" json:"centre"`
	Family       string    `gorm:"size:200;not null;default:''" json:"family"`
	ChildName    string    `gorm:"size:200;not null;default:''" json:"child_name"`
	ChildStatus  string    `gorm:"size:100;not null;default:''" json:"child_status"`
	FamilyStatus string    `gorm:"size:100;not null;default:''" json:"family_status"`
	BillingCycle string    `gorm:"size:100;not null;default:''" json:"billing_cycle"`
	CentreKey    string    `gorm:"size:100;not null;default:'';index:idx_enrollment_key,priority:1" json:"-"`
	ChildKey     string    `gorm:"size:200;not null;default:'';index:idx_enrollment_key,priority:2" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Enrollment) TableName() string {
	return "enrollment"
}

func (e *Enrollment) BeforeSave(tx *gorm.DB) error {
	e.CentreKey = utils.NormalizeKey(e.Centre)
	e.ChildKey = utils.NormalizeKey(e.ChildName)
	return nil
}

// EnrollmentDetails are the fields an adjustment copies from its enrollment.
type EnrollmentDetails struct {
	ChildStatus  string `json:"Child Status"`
	FamilyStatus string `json:"Family Status"`
	BillingCycle string `json:"Billing Cycle"`
}

func (e Enrollment) Details() EnrollmentDetails {
	return EnrollmentDetails{
		ChildStatus:  e.ChildStatus,
		FamilyStatus: e.FamilyStatus,
		BillingCycle: e.BillingCycle,
	}
}

type ChildrenListing struct {
	Children []string `json:"children"`
	Families []string `json:"families"`
	Centers  []string `json:"centers"`
}

// findEnrollmentByKey returns the oldest enrollment for (centre, child), or nil.
func findEnrollmentByKey(ctx context.Context, tx *gorm.DB, centre string, child string) (*Enrollment, error) {
	var enrollment Enrollment
	err := tx.WithContext(ctx).
		Where("centre_key = ? AND child_key = ?", utils.NormalizeKey(centre), utils.NormalizeKey(child)).
		Order("id").
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &enrollment, nil
}

// ListChildren returns the distinct children, families and centers on the
// roster the caller can see. Admins may narrow to one center.
func ListChildren(ctx context.Context, principal Principal, center string) (*ChildrenListing, error) {
	if err := requireSession(principal); err != nil {
		return nil, err
	}
	db := config.GetDB()
	scopedCtx, _ := principal.scopedContext(ctx, center)

	var result ChildrenListing
	var err error
	if result.Children, err = distinctEnrollmentValues(scopedCtx, db, "child_name"); err != nil {
		return nil, utils.NewStorageError("list children", err)
	}
	if result.Families, err = distinctEnrollmentValues(scopedCtx, db, "family"); err != nil {
		return nil, utils.NewStorageError("list families", err)
	}

	// the center picker is not narrowed by the admin's own filter
	centersCtx := ctx
	if !principal.IsAdmin() {
		centersCtx = scopedCtx
	}
	if result.Centers, err = distinctEnrollmentValues(centersCtx, db, "centre"); err != nil {
		return nil, utils.NewStorageError("list centers", err)
	}
	return &result, nil
}

// GetChildDetails looks up the roster fields for (centre, child) by
// normalized key. Regular users always look in their own center.
// No match gives empty details, not an error.
func GetChildDetails(ctx context.Context, principal Principal, centre string, child string) (*EnrollmentDetails, error) {
	if err := requireSession(principal); err != nil {
		return nil, err
	}
	if !principal.IsAdmin() {
		centre = principal.Center
	}
	if strings.TrimSpace(centre) == "" || strings.TrimSpace(child) == "" {
		return &EnrollmentDetails{}, nil
	}

	enrollment, err := findEnrollmentByKey(ctx, config.GetDB(), centre, child)
	if err != nil {
		return nil, utils.NewStorageError("get child details", err)
	}
	if enrollment == nil {
		return &EnrollmentDetails{}, nil
	}
	details := enrollment.Details()
	return &details, nil
}

func distinctEnrollmentValues(ctx context.Context, db *gorm.DB, column string) ([]string, error) {
	var raw []string
	if err := db.WithContext(ctx).Model(&Enrollment{}).Distinct().Pluck(column, &raw).Error; err != nil {
		return nil, err
	}
	return sortedNonBlank(raw), nil
}

func sortedNonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	out = utils.UniqueSlice(out)
	sort.Strings(out)
	if out == nil {
		return []string{}
	}
	return out
}
