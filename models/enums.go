package models

import "strings"

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// ParseUserRole lower-cases the stored role. Anything blank is a regular user.
func ParseUserRole(s string) UserRole {
	role := strings.ToLower(strings.TrimSpace(s))
	if role == "" {
		return UserRoleUser
	}
	return UserRole(role)
}

// AllCenters is the center value given to admins.
const AllCenters = "ALL"

const (
	ApprovalPending     = "Pending"
	ApprovalApproved    = "Approved"
	ApprovalNotApproved = "Not Approved"
)

// BulkApprovalStatuses are the only values BulkUpdateApproval accepts.
var BulkApprovalStatuses = []string{ApprovalPending, ApprovalApproved, ApprovalNotApproved}

// approval values counted as "not approved" on the dashboard, lower-cased
var notApprovedValues = map[string]bool{"": true, "not approved": true, "rejected": true, "no": true}

// A "Pull" adjustment never carries pulling instructions.
const PullingCategoryPull = "Pull"

// column labels, shared by JSON records, form fields, validation messages,
// CSV import headers and the spreadsheet export
const (
	ColID                  = "ID"
	ColCentre              = "Centre"
	ColDateUpdated         = "Date Updated"
	ColFamily              = "Family"
	ColChildName           = "Child's Name"
	ColAmount              = "Adjustment Amount"
	ColNote                = "Note/Description"
	ColPullingCategory     = "Pulling Category"
	ColPullingInstructions = "Pulling Instructions"
	ColStartDate           = "Start Date"
	ColEndDate             = "End Date"
	ColRecurring           = "Adjustment is Recurring?"
	ColApproval            = "Approval"
	ColChildStatus         = "Child Status"
	ColFamilyStatus        = "Family Status"
	ColBillingCycle        = "Billing Cycle"
)

// AdjustmentColumns is the fixed output order of an adjustment record.
var AdjustmentColumns = []string{
	ColID, ColCentre, ColDateUpdated, ColFamily, ColChildName, ColAmount,
	ColNote, ColPullingCategory, ColPullingInstructions, ColStartDate, ColEndDate,
	ColRecurring, ColApproval, ColChildStatus, ColFamilyStatus, ColBillingCycle,
}

// EnrollmentColumns are the headers a roster sheet must carry.
var EnrollmentColumns = []string{
	ColCentre, ColFamily, ColChildName, ColChildStatus, ColFamilyStatus, ColBillingCycle,
}
