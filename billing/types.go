package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Plan is a subscription tier. Tiers are totally ordered by Rank.
type Plan string

const (
	PlanSilver   Plan = "Silver"
	PlanGold     Plan = "Gold"
	PlanPlatinum Plan = "Platinum"
)

// Rank returns the ordinal position of the plan (Silver=1, Gold=2,
// Platinum=3). Unknown plans rank 0.
func (p Plan) Rank() int {
	switch p {
	case PlanSilver:
		return 1
	case PlanGold:
		return 2
	case PlanPlatinum:
		return 3
	}
	return 0
}

// ParsePlan resolves a raw plan string case-insensitively.
func ParsePlan(s string) (Plan, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silver":
		return PlanSilver, true
	case "gold":
		return PlanGold, true
	case "platinum":
		return PlanPlatinum, true
	}
	return "", false
}

// MovementType classifies a plan-rank change between consecutive billing
// periods for one customer.
type MovementType string

const (
	MovementNewCustomer MovementType = "new_customer"
	MovementUpgrade     MovementType = "upgrade"
	MovementDowngrade   MovementType = "downgrade"
	MovementNoChange    MovementType = "no_change"
)

// BillingEvent is one customer-billing-period record.
//
// CustomerID..BillDue come from the loader. PlanRank, MonthNum and
// TimeIndex are derived once at load and never mutated. The Prev*,
// PlanChange, Movement and Transition fields are filled in by
// engine.Transform.
type BillingEvent struct {
	CustomerID   string
	CustomerName string
	City         string
	Plan         Plan
	BillingYear  int
	BillingMonth string // canonical month name, e.g. "March"

	MonthNum  int // 1–12
	TimeIndex int // BillingYear*12 + MonthNum, monotonic across years
	PlanRank  int

	UsageCharges decimal.Decimal
	GSTAmount    decimal.Decimal
	BillDue      decimal.Decimal

	PrevPlan     Plan // empty for a customer's first record
	PrevPlanRank int  // 0 when PrevPlan is empty
	PlanChange   int  // PlanRank - PrevPlanRank
	Movement     MovementType
	Transition   string // "Silver_to_Gold", "NONE_to_Silver"
}

var monthNums = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
}

var monthNames = [13]string{"",
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the canonical name for a month number 1–12.
func MonthName(n int) string {
	if n < 1 || n > 12 {
		return ""
	}
	return monthNames[n]
}
