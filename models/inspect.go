package models

import (
	"context"

	"github.com/brightpath/adjustments_backend/config"
	"github.com/brightpath/adjustments_backend/utils"
)

type InspectedAdjustment struct {
	ID           string `json:"id"`
	Centre       string `json:"centre"`
	ChildName    string `json:"child_name"`
	EnrollmentId *int   `json:"enrollment_id"`
	Linked       bool   `json:"linked"`
}

type DatabaseSnapshot struct {
	Users       int64                 `json:"users"`
	Enrollments int64                 `json:"enrollments"`
	Adjustments int64                 `json:"adjustments"`
	Unlinked    int64                 `json:"unlinked_adjustments"`
	Sample      []InspectedAdjustment `json:"sample_adjustments"`
	Roster      []Enrollment          `json:"sample_enrollments"`
}

// InspectDatabase counts every table and samples the first adjustments
// (with whether their enrollment link resolves) and enrollments by id.
func InspectDatabase(ctx context.Context, adjustmentLimit int, enrollmentLimit int) (*DatabaseSnapshot, error) {
	ctx = utils.SetSkipCenterScopeInContext(ctx, true)
	db := config.GetDB().WithContext(ctx)
	var snap DatabaseSnapshot

	if err := db.Model(&User{}).Count(&snap.Users).Error; err != nil {
		return nil, utils.NewStorageError("count users", err)
	}
	if err := db.Model(&Enrollment{}).Count(&snap.Enrollments).Error; err != nil {
		return nil, utils.NewStorageError("count enrollments", err)
	}
	if err := db.Model(&Adjustment{}).Count(&snap.Adjustments).Error; err != nil {
		return nil, utils.NewStorageError("count adjustments", err)
	}
	if err := db.Model(&Adjustment{}).Where("enrollment_id IS NULL").Count(&snap.Unlinked).Error; err != nil {
		return nil, utils.NewStorageError("count unlinked", err)
	}

	var adjustments []Adjustment
	if err := db.Preload("Enrollment").Order("id").Limit(adjustmentLimit).Find(&adjustments).Error; err != nil {
		return nil, utils.NewStorageError("sample adjustments", err)
	}
	snap.Sample = make([]InspectedAdjustment, 0, len(adjustments))
	for _, a := range adjustments {
		snap.Sample = append(snap.Sample, InspectedAdjustment{
			ID:           a.ID,
			Centre:       a.Centre,
			ChildName:    a.ChildName,
			EnrollmentId: a.EnrollmentId,
			Linked:       a.Enrollment != nil,
		})
	}

	if err := db.Order("id").Limit(enrollmentLimit).Find(&snap.Roster).Error; err != nil {
		return nil, utils.NewStorageError("sample enrollments", err)
	}
	return &snap, nil
}
