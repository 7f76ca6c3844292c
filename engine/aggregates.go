package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/startel-org/startel/billing"
)

// CustomerRevenueAggregate is the revenue rollup for one customer.
type CustomerRevenueAggregate struct {
	CustomerID     string
	TotalPaid      decimal.Decimal
	AvgMonthlyBill decimal.Decimal
	ActiveMonths   int
	MaxBill        decimal.Decimal
	MinBill        decimal.Decimal
}

// CityAggregate is the rollup for one city.
type CityAggregate struct {
	City         string
	TotalUsers   int // distinct customers
	TotalRevenue decimal.Decimal
	AvgBill      decimal.Decimal
}

// BuildCustomerAggregates groups events by customer and reduces bill_due.
// Pure function of the event set; ordered by customer ID.
func BuildCustomerAggregates(events []billing.BillingEvent) []CustomerRevenueAggregate {
	byCustomer := make(map[string]*CustomerRevenueAggregate)
	var order []string

	for _, e := range events {
		agg, ok := byCustomer[e.CustomerID]
		if !ok {
			agg = &CustomerRevenueAggregate{
				CustomerID: e.CustomerID,
				MaxBill:    e.BillDue,
				MinBill:    e.BillDue,
			}
			byCustomer[e.CustomerID] = agg
			order = append(order, e.CustomerID)
		}
		agg.TotalPaid = agg.TotalPaid.Add(e.BillDue)
		agg.ActiveMonths++
		if e.BillDue.GreaterThan(agg.MaxBill) {
			agg.MaxBill = e.BillDue
		}
		if e.BillDue.LessThan(agg.MinBill) {
			agg.MinBill = e.BillDue
		}
	}

	sort.Strings(order)
	out := make([]CustomerRevenueAggregate, 0, len(order))
	for _, id := range order {
		agg := byCustomer[id]
		agg.AvgMonthlyBill = agg.TotalPaid.Div(decimal.NewFromInt(int64(agg.ActiveMonths)))
		out = append(out, *agg)
	}
	return out
}

// BuildCityAggregates groups events by city, counting distinct customers
// and reducing bill_due. Pure function of the event set; ordered by city.
func BuildCityAggregates(events []billing.BillingEvent) []CityAggregate {
	type cityAcc struct {
		users   map[string]struct{}
		revenue decimal.Decimal
		bills   int
	}

	byCity := make(map[string]*cityAcc)
	var order []string

	for _, e := range events {
		acc, ok := byCity[e.City]
		if !ok {
			acc = &cityAcc{users: make(map[string]struct{})}
			byCity[e.City] = acc
			order = append(order, e.City)
		}
		acc.users[e.CustomerID] = struct{}{}
		acc.revenue = acc.revenue.Add(e.BillDue)
		acc.bills++
	}

	sort.Strings(order)
	out := make([]CityAggregate, 0, len(order))
	for _, city := range order {
		acc := byCity[city]
		out = append(out, CityAggregate{
			City:         city,
			TotalUsers:   len(acc.users),
			TotalRevenue: acc.revenue,
			AvgBill:      acc.revenue.Div(decimal.NewFromInt(int64(acc.bills))),
		})
	}
	return out
}

// Cities returns the sorted, deduplicated city names across all events.
func Cities(events []billing.BillingEvent) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range events {
		if e.City == "" {
			continue
		}
		if _, ok := seen[e.City]; !ok {
			seen[e.City] = struct{}{}
			out = append(out, e.City)
		}
	}
	sort.Strings(out)
	return out
}
