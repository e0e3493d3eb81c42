package models

import (
	"context"
	"errors"
	"time"

	"github.com/brightpath/adjustments_backend/config"
	"github.com/brightpath/adjustments_backend/utils"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	enrollmentLockTTL     = 10 * time.Second
	enrollmentLockTimeout = 2 * time.Second
)

// EnrollmentResolution is the outcome of ResolveOrCreateEnrollment.
// Enrollment is nil when the payload had no centre or no child.
type EnrollmentResolution struct {
	Enrollment *Enrollment
	Created    bool
}

func (r EnrollmentResolution) EnrollmentID() *int {
	if r.Enrollment == nil {
		return nil
	}
	id := r.Enrollment.ID
	return &id
}

// ResolveOrCreateEnrollment finds the enrollment for the payload's
// (centre, child) by normalized key, creating it from the payload inside tx
// when there is none.
func ResolveOrCreateEnrollment(ctx context.Context, tx *gorm.DB, input NewAdjustment) (EnrollmentResolution, error) {
	if input.Centre == "" || input.ChildName == "" {
		return EnrollmentResolution{}, nil
	}

	existing, err := findEnrollmentByKey(ctx, tx, input.Centre, input.ChildName)
	if err != nil {
		return EnrollmentResolution{}, err
	}
	if existing != nil {
		return EnrollmentResolution{Enrollment: existing}, nil
	}

	enrollment := Enrollment{
		Centre:       input.Centre,
		Family:       input.Family,
		ChildName:    input.ChildName,
		ChildStatus:  input.ChildStatus,
		FamilyStatus: input.FamilyStatus,
		BillingCycle: input.BillingCycle,
	}
	if err := tx.WithContext(ctx).Create(&enrollment).Error; err != nil {
		return EnrollmentResolution{}, err
	}
	return EnrollmentResolution{Enrollment: &enrollment, Created: true}, nil
}

// ApplyEnrollmentFields overwrites the payload's status fields with the
// resolved enrollment's. Unlinked payloads are returned unchanged.
func ApplyEnrollmentFields(input NewAdjustment, resolution EnrollmentResolution) NewAdjustment {
	if resolution.Enrollment == nil {
		return input
	}
	details := resolution.Enrollment.Details()
	input.ChildStatus = details.ChildStatus
	input.FamilyStatus = details.FamilyStatus
	input.BillingCycle = details.BillingCycle
	return input
}

// withEnrollmentLock runs fn holding a Redis lock on the (centre, child) key
// so concurrent writers don't both create the enrollment. Best effort: with
// no Redis, or when the lock can't be had in time, fn runs anyway.
func withEnrollmentLock(ctx context.Context, centre string, child string, fn func() error) error {
	locker := config.GetRedisLock()
	if locker == nil || centre == "" || child == "" {
		return fn()
	}
	logger := config.GetLogger()
	lockKey := "lock:enrollment:" + utils.NormalizeKey(centre) + "|" + utils.NormalizeKey(child)

	obtainCtx, cancel := context.WithTimeout(ctx, enrollmentLockTimeout)
	defer cancel()
	lock, err := locker.Obtain(obtainCtx, lockKey, enrollmentLockTTL, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(100 * time.Millisecond),
	})
	if err != nil {
		msg := "error obtaining enrollment lock; proceeding without lock: " + err.Error()
		if errors.Is(err, redislock.ErrNotObtained) {
			msg = "could not obtain enrollment lock; proceeding without lock"
		}
		logger.WithFields(logrus.Fields{
			"field": "withEnrollmentLock",
			"key":   lockKey,
		}).Warn(msg)
		return fn()
	}
	defer func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			logger.WithFields(logrus.Fields{
				"field": "withEnrollmentLock",
				"key":   lockKey,
			}).Warn("failed to release enrollment lock: " + releaseErr.Error())
		}
	}()
	return fn()
}
