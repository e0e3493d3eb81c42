package models

import (
	"context"
	"strings"

	"github.com/brightpath/adjustments_backend/config"
	"github.com/brightpath/adjustments_backend/utils"
	"github.com/shopspring/decimal"
)

// AdjustmentSummary holds the dashboard counters.
type AdjustmentSummary struct {
	Total                 int    `json:"total"`
	ApprovedCount         int    `json:"approved_count"`
	PendingCount          int    `json:"pending_count"`
	NotApprovedCount      int    `json:"not_approved_count"`
	TotalAdjustmentAmount string `json:"total_adjustment_amount"`
}

type AdjustmentListing struct {
	AdjustmentSummary
	Records        []AdjustmentRecord `json:"records"`
	Centers        []string           `json:"centers"`
	SelectedCenter string             `json:"selected_center"`
	Username       string             `json:"username"`
	Role           UserRole           `json:"role"`
	UserCenter     string             `json:"user_center"`
}

// Summarize counts approvals case-insensitively and sums amounts.
// Approvals that are blank, "not approved", "rejected" or "no" count as not approved.
func Summarize(adjustments []Adjustment) AdjustmentSummary {
	summary := AdjustmentSummary{Total: len(adjustments)}
	total := decimal.Zero
	for _, a := range adjustments {
		approval := strings.ToLower(strings.TrimSpace(a.Approval))
		switch {
		case approval == "approved":
			summary.ApprovedCount++
		case approval == "pending":
			summary.PendingCount++
		case notApprovedValues[approval]:
			summary.NotApprovedCount++
		}
		total = total.Add(a.Amount)
	}
	summary.TotalAdjustmentAmount = utils.FormatCurrency(total)
	return summary
}

// loadAdjustments returns the adjustments the principal can see, narrowed to
// centerFilter for admins, and the center the view ends up showing ("" for
// every center).
func loadAdjustments(ctx context.Context, principal Principal, centerFilter string) ([]Adjustment, string, error) {
	if err := requireSession(principal); err != nil {
		return nil, "", err
	}
	scopedCtx, selected := principal.scopedContext(ctx, centerFilter)

	var adjustments []Adjustment
	db := config.GetDB()
	if err := db.WithContext(scopedCtx).Order("date_updated DESC").Order("id").Find(&adjustments).Error; err != nil {
		config.LogError(config.GetLogger(), "listing.go", "loadAdjustments", "find", centerFilter, err)
		return nil, "", utils.NewStorageError("list adjustments", err)
	}
	return adjustments, selected, nil
}

// ListAdjustments is the dashboard: every visible record in column order
// plus counters and the center picker.
func ListAdjustments(ctx context.Context, principal Principal, centerFilter string) (*AdjustmentListing, error) {
	adjustments, selected, err := loadAdjustments(ctx, principal, centerFilter)
	if err != nil {
		return nil, err
	}

	centers, err := visibleCenters(ctx, principal)
	if err != nil {
		return nil, err
	}

	records := make([]AdjustmentRecord, 0, len(adjustments))
	for _, a := range adjustments {
		records = append(records, a.Record())
	}
	return &AdjustmentListing{
		AdjustmentSummary: Summarize(adjustments),
		Records:           records,
		Centers:           centers,
		SelectedCenter:    selected,
		Username:          principal.Username,
		Role:              principal.Role,
		UserCenter:        principal.Center,
	}, nil
}

// visibleCenters is every distinct adjustment centre for admins and just
// their own center for everyone else.
func visibleCenters(ctx context.Context, principal Principal) ([]string, error) {
	if !principal.IsAdmin() {
		return sortedNonBlank([]string{principal.Center}), nil
	}
	var raw []string
	if err := config.GetDB().WithContext(ctx).Model(&Adjustment{}).Distinct().Pluck("centre", &raw).Error; err != nil {
		return nil, utils.NewStorageError("list centers", err)
	}
	return sortedNonBlank(raw), nil
}
