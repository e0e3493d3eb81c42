package models

import (
	"github.com/brightpath/adjustments_backend/utils"
)

// ValidateAdjustment checks the final merged payload and reports every
// problem at once. A regular user's approval is forced to Pending first.
func ValidateAdjustment(input *NewAdjustment, role UserRole) error {
	if role != UserRoleAdmin {
		input.Approval = ApprovalPending
	}

	problems, err := utils.ValidateStructLabels(input)
	if err != nil {
		return err
	}

	if _, err := utils.ParseDecimal(input.Amount); err != nil {
		problems = append(problems, ColAmount+" (must be number)")
	}

	start, startErr := utils.ParseISODate(input.StartDate)
	if startErr != nil {
		problems = append(problems, ColStartDate+" (invalid date, use YYYY-MM-DD)")
	}
	end, endErr := utils.ParseISODate(input.EndDate)
	if endErr != nil {
		problems = append(problems, ColEndDate+" (invalid date, use YYYY-MM-DD)")
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		problems = append(problems, "End Date must be on or after Start Date")
	}

	if len(problems) > 0 {
		return utils.NewValidationError(problems...)
	}
	return nil
}
