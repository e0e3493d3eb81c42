package models

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brightpath/adjustments_backend/config"
	"github.com/brightpath/adjustments_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	usersFile       = "users.json"
	enrollmentsFile = "ChildEnrollment.csv"
	adjustmentsFile = "Adjustments.csv"
)

type ImportResult struct {
	Users       int
	Enrollments int
	Adjustments int
}

// ImportStartupData seeds each empty table from dir. A missing file is
// skipped; each file is imported in its own transaction.
func ImportStartupData(ctx context.Context, dir string) (ImportResult, error) {
	ctx = utils.SetSkipCenterScopeInContext(ctx, true)
	logger := config.GetLogger()
	var result ImportResult
	var errs []error

	if n, err := importUsersIfEmpty(ctx, filepath.Join(dir, usersFile)); err != nil {
		config.LogError(logger, "csvImport.go", "ImportStartupData", "import users", usersFile, err)
		errs = append(errs, err)
	} else {
		result.Users = n
	}
	if n, err := importEnrollmentsIfEmpty(ctx, filepath.Join(dir, enrollmentsFile)); err != nil {
		config.LogError(logger, "csvImport.go", "ImportStartupData", "import enrollments", enrollmentsFile, err)
		errs = append(errs, err)
	} else {
		result.Enrollments = n
	}
	if n, err := importAdjustmentsIfEmpty(ctx, filepath.Join(dir, adjustmentsFile)); err != nil {
		config.LogError(logger, "csvImport.go", "ImportStartupData", "import adjustments", adjustmentsFile, err)
		errs = append(errs, err)
	} else {
		result.Adjustments = n
	}

	logger.WithFields(logrus.Fields{
		"field":       "ImportStartupData",
		"dir":         dir,
		"users":       result.Users,
		"enrollments": result.Enrollments,
		"adjustments": result.Adjustments,
	}).Info("startup import finished")
	return result, errors.Join(errs...)
}

type importedUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Center   string `json:"center"`
}

func importUsersIfEmpty(ctx context.Context, path string) (int, error) {
	count, err := CountUsers(ctx)
	if err != nil || count > 0 {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var users []importedUser
	if err := utils.UnmarshalFromJSON(data, &users); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	rows := make([]User, 0, len(users))
	for _, u := range users {
		username := strings.TrimSpace(u.Username)
		if username == "" {
			continue
		}
		password, err := storedPassword(strings.TrimSpace(u.Password))
		if err != nil {
			return 0, err
		}
		rows = append(rows, User{
			Username: username,
			Password: password,
			Role:     ParseUserRole(u.Role),
			Center:   strings.TrimSpace(u.Center),
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	err = config.GetDB().WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	return len(rows), err
}

func importEnrollmentsIfEmpty(ctx context.Context, path string) (int, error) {
	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Enrollment{}).Count(&count).Error; err != nil || count > 0 {
		return 0, err
	}
	rows, err := readCSV(path, EnrollmentColumns...)
	if err != nil || rows == nil {
		return 0, err
	}

	enrollments := make([]Enrollment, 0, len(rows))
	for _, row := range rows {
		e := Enrollment{
			Centre:       row.get(ColCentre),
			Family:       row.get(ColFamily),
			ChildName:    row.get(ColChildName),
			ChildStatus:  row.get(ColChildStatus),
			FamilyStatus: row.get(ColFamilyStatus),
			BillingCycle: row.get(ColBillingCycle),
		}
		if e.Centre == "" && e.ChildName == "" {
			continue
		}
		enrollments = append(enrollments, e)
	}
	if len(enrollments) == 0 {
		return 0, nil
	}
	err = db.WithContext(ctx).CreateInBatches(&enrollments, 200).Error
	return len(enrollments), err
}

func importAdjustmentsIfEmpty(ctx context.Context, path string) (int, error) {
	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Adjustment{}).Count(&count).Error; err != nil || count > 0 {
		return 0, err
	}
	rows, err := readCSV(path)
	if err != nil || rows == nil {
		return 0, err
	}

	imported := 0
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			input := NewAdjustment{
				Centre:       row.get(ColCentre),
				Family:       row.get(ColFamily),
				ChildName:    row.get(ColChildName),
				ChildStatus:  row.get(ColChildStatus),
				FamilyStatus: row.get(ColFamilyStatus),
				BillingCycle: row.get(ColBillingCycle),
			}
			resolution, err := ResolveOrCreateEnrollment(ctx, tx, input)
			if err != nil {
				return err
			}

			adjustment := importedAdjustment(row, resolution.EnrollmentID())
			if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&adjustment).Error; err != nil {
				return err
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}

// importedAdjustment keeps sheet values as they are: unparseable amounts
// become 0 and unparseable dates are left empty.
func importedAdjustment(row csvRow, enrollmentId *int) Adjustment {
	id := row.get(ColID)
	if id == "" {
		id = uuid.NewString()
	}
	amount, err := utils.ParseAmount(row.get(ColAmount))
	if err != nil {
		amount = decimal.Zero
	}
	dateUpdated := utils.DateOnly(time.Now())
	if t, err := utils.ParseFlexibleDate(row.get(ColDateUpdated)); err == nil {
		dateUpdated = t
	}

	return Adjustment{
		ID:                  id,
		EnrollmentId:        enrollmentId,
		DateUpdated:         dateUpdated,
		Centre:              row.get(ColCentre),
		Family:              row.get(ColFamily),
		ChildName:           row.get(ColChildName),
		Amount:              amount,
		Note:                row.get(ColNote),
		PullingCategory:     row.get(ColPullingCategory),
		PullingInstructions: row.get(ColPullingInstructions),
		StartDate:           optionalDate(row.get(ColStartDate)),
		EndDate:             optionalDate(row.get(ColEndDate)),
		Recurring:           row.get(ColRecurring),
		Approval:            row.get(ColApproval),
		ChildStatus:         row.get(ColChildStatus),
		FamilyStatus:        row.get(ColFamilyStatus),
		BillingCycle:        row.get(ColBillingCycle),
	}
}

func optionalDate(value string) *time.Time {
	t, err := utils.ParseFlexibleDate(value)
	if err != nil {
		return nil
	}
	t = utils.DateOnly(t)
	return &t
}

// csvRow maps header -> trimmed cell.
type csvRow map[string]string

func (r csvRow) get(col string) string {
	return r[col]
}

// readCSV returns nil rows when the file does not exist. A header lacking
// any of required is an error.
func readCSV(path string, required ...string) ([]csvRow, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := parseCSV(f, required)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

func parseCSV(r io.Reader, required []string) ([]csvRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []csvRow{}, nil
	}
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(header))
	for i, h := range header {
		// spreadsheet exports often start with a byte order mark
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		present[header[i]] = true
	}
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	rows := []csvRow{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(csvRow, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
