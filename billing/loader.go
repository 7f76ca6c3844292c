package billing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Required columns from the upstream ETL contract. The remaining schema
// columns (customer_name, usage_charges, gst_amount, bill_due) are
// optional and missing amounts load as zero.
var requiredColumns = []string{"customer_id", "city", "plan", "billing_month"}

// periodPattern extracts "<month name> <4-digit year>" from free-text
// billing periods, tolerating separators like "March, 2023" or
// "March-2023".
var periodPattern = regexp.MustCompile(`^([A-Za-z]+)[\s,\-]+(\d{4})$`)

// LoadReport summarizes one load: how many rows were seen, how many
// survived validation, and which column was picked as the revenue source.
type LoadReport struct {
	Rows           int
	Loaded         int
	DroppedPeriods int // unparseable billing_month
	DroppedPlans   int // plan outside Silver/Gold/Platinum
	RevenueColumn  string
}

// HasRevenue reports whether a revenue-like column was present. When
// false the analytical path must fail with ErrNoRevenueColumn.
func (r *LoadReport) HasRevenue() bool { return r.RevenueColumn != "" }

// ParseCSV parses raw billing rows into validated BillingEvents.
//
// Rows with an unparseable billing period or an unknown plan are dropped
// and counted, not silently included. A duplicate (customer, period) pair
// aborts the load: downstream temporal features require a total order per
// customer.
func ParseCSV(data []byte) ([]BillingEvent, *LoadReport, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read CSV headers: %w", err)
	}

	col := make(map[string]int, len(headers))
	for i, h := range headers {
		col[toSnakeCase(h)] = i
	}
	for _, required := range requiredColumns {
		if _, ok := col[required]; !ok {
			return nil, nil, &SchemaError{Column: required}
		}
	}

	report := &LoadReport{RevenueColumn: findRevenueColumn(headers)}
	revenueIdx, hasRevenue := col[report.RevenueColumn]
	if report.RevenueColumn == "" {
		// bill_due is defined as usage + GST, so revenue is derivable
		// when both components are present.
		_, hasUsage := col["usage_charges"]
		_, hasGST := col["gst_amount"]
		if hasUsage && hasGST {
			report.RevenueColumn = "usage_charges+gst_amount"
		}
	}

	seen := make(map[string]map[int]struct{})
	var events []BillingEvent

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // malformed row
		}
		report.Rows++

		cell := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		period := cell("billing_month")
		monthName, monthNum, year, perr := ParsePeriod(period)
		if perr != nil {
			report.DroppedPeriods++
			log.Warn().Int("row", report.Rows).Str("billing_month", period).
				Msg("dropping row with unparseable billing period")
			continue
		}

		plan, ok := ParsePlan(cell("plan"))
		if !ok {
			report.DroppedPlans++
			log.Warn().Int("row", report.Rows).Str("plan", cell("plan")).
				Msg("dropping row with unknown plan")
			continue
		}

		customerID := cell("customer_id")
		timeIndex := year*12 + monthNum
		if periods, ok := seen[customerID]; ok {
			if _, dup := periods[timeIndex]; dup {
				return nil, nil, &DuplicatePeriodError{
					CustomerID: customerID,
					Month:      monthName,
					Year:       year,
				}
			}
		} else {
			seen[customerID] = make(map[int]struct{})
		}
		seen[customerID][timeIndex] = struct{}{}

		usage := parseAmount(cell("usage_charges"))
		gst := parseAmount(cell("gst_amount"))
		billDue := usage.Add(gst)
		if hasRevenue {
			if i := revenueIdx; i < len(row) {
				if v, err := decimal.NewFromString(cleanAmount(row[i])); err == nil {
					billDue = v
				}
			}
		}

		events = append(events, BillingEvent{
			CustomerID:   customerID,
			CustomerName: cell("customer_name"),
			City:         cell("city"),
			Plan:         plan,
			BillingYear:  year,
			BillingMonth: monthName,
			MonthNum:     monthNum,
			TimeIndex:    timeIndex,
			PlanRank:     plan.Rank(),
			UsageCharges: usage,
			GSTAmount:    gst,
			BillDue:      billDue,
		})
		report.Loaded++
	}

	log.Info().Int("rows", report.Rows).Int("loaded", report.Loaded).
		Int("dropped_periods", report.DroppedPeriods).
		Int("dropped_plans", report.DroppedPlans).
		Str("revenue_column", report.RevenueColumn).
		Msg("billing events loaded")

	return events, report, nil
}

// LoadFile reads and parses a billing CSV from disk.
func LoadFile(path string) ([]BillingEvent, *LoadReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseCSV(data)
}

// ParsePeriod splits a free-text billing period into its canonical month
// name, month number and year. "March 2023" → ("March", 3, 2023).
func ParsePeriod(s string) (string, int, int, error) {
	m := periodPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", 0, 0, &AmbiguousPeriodError{Value: s}
	}
	num, ok := monthNums[strings.ToLower(m[1])]
	if !ok {
		return "", 0, 0, &AmbiguousPeriodError{Value: s}
	}
	var year int
	fmt.Sscanf(m[2], "%d", &year)
	return MonthName(num), num, year, nil
}

// findRevenueColumn picks the column holding the amount owed for the
// period, by naming convention. gst_amount and usage_charges are
// components, never the revenue column itself.
func findRevenueColumn(headers []string) string {
	for _, h := range headers {
		key := toSnakeCase(h)
		switch key {
		case "bill_due", "total_amount_due", "net_payable", "total_due":
			return key
		}
		if strings.Contains(key, "revenue") {
			return key
		}
	}
	return ""
}

func parseAmount(s string) decimal.Decimal {
	v, err := decimal.NewFromString(cleanAmount(s))
	if err != nil {
		return decimal.Zero
	}
	return v
}

func cleanAmount(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}

// toSnakeCase converts "Billing Month" → "billing_month".
func toSnakeCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
