package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/startel-org/startel/billing"
)

// UnsupportedAnswer is the sentinel response for analytical questions no
// handler claims. Never an error; the caller can always show it.
const UnsupportedAnswer = "Sorry, that analytical question is not supported yet."

// ErrEmptyAggregate is returned by handlers that need at least one row
// in scope (top customer, highest-revenue year) when none exists.
var ErrEmptyAggregate = errors.New("no data for the requested scope")

// answerHandler pairs a match predicate with its answer function. The
// table below is evaluated in order against the normalized question and
// the first match wins.
type answerHandler struct {
	name   string
	match  func(q string, intent Intent) bool
	answer func(ds *Dataset, q string, intent Intent) (string, error)
}

var answerHandlers = []answerHandler{
	{
		name: "plan_movement",
		match: func(q string, _ Intent) bool {
			return strings.Contains(q, "upgrade") || strings.Contains(q, "downgrade")
		},
		answer: answerMovement,
	},
	{
		name: "city_enumeration",
		match: func(q string, _ Intent) bool {
			if !strings.Contains(q, "city") && !strings.Contains(q, "cities") {
				return false
			}
			if strings.Contains(q, "what all") {
				return true
			}
			for _, w := range enumerationWords {
				if hasWord(q, w) {
					return true
				}
			}
			return false
		},
		answer: answerCities,
	},
	{
		name: "total_revenue_year",
		match: func(q string, intent Intent) bool {
			return strings.Contains(q, "total revenue") && intent.Year != 0
		},
		answer: answerTotalRevenue,
	},
	{
		name: "highest_revenue_year",
		match: func(q string, _ Intent) bool {
			return strings.Contains(q, "highest revenue") || strings.Contains(q, "max revenue")
		},
		answer: answerHighestRevenueYear,
	},
	{
		name: "top_customer",
		match: func(q string, _ Intent) bool {
			return strings.Contains(q, "top customer") || strings.Contains(q, "highest contributor")
		},
		answer: answerTopCustomer,
	},
}

// AnswerAnalytical dispatches a question to the first matching handler.
// Questions matching no handler get UnsupportedAnswer, never an error.
func AnswerAnalytical(question string, ds *Dataset) (string, error) {
	intent, err := Interpret(question)
	if err != nil {
		return "", err
	}

	q := Normalize(question)
	for _, h := range answerHandlers {
		if !h.match(q, intent) {
			continue
		}
		log.Debug().Str("handler", h.name).Str("question", question).
			Msg("dispatching analytical question")
		return h.answer(ds, q, intent)
	}
	return UnsupportedAnswer, nil
}

func answerMovement(ds *Dataset, q string, intent Intent) (string, error) {
	direction := billing.MovementUpgrade
	label := "upgrades"
	if !strings.Contains(q, "upgrade") {
		direction = billing.MovementDowngrade
		label = "downgrades"
	}

	count := 0
	for _, e := range ds.Events {
		if e.Movement != direction {
			continue
		}
		if intent.Year != 0 && e.BillingYear != intent.Year {
			continue
		}
		if len(intent.Plans) == 2 {
			forward := TransitionPair(intent.Plans[0], intent.Plans[1])
			reverse := TransitionPair(intent.Plans[1], intent.Plans[0])
			if e.Transition != forward && e.Transition != reverse {
				continue
			}
		}
		count++
	}

	scope := ""
	if intent.Year != 0 {
		scope = fmt.Sprintf(" in %d", intent.Year)
	}
	if len(intent.Plans) == 2 {
		return fmt.Sprintf("%s from %s to %s%s: %d",
			titleWord(label), intent.Plans[0], intent.Plans[1], scope, count), nil
	}
	return fmt.Sprintf("Total %s%s: %d", label, scope, count), nil
}

func answerCities(ds *Dataset, _ string, _ Intent) (string, error) {
	cities := Cities(ds.Events)
	if len(cities) == 0 {
		return "No cities found in the data.", nil
	}
	return "Cities in the data: " + strings.Join(cities, ", "), nil
}

func answerTotalRevenue(ds *Dataset, _ string, intent Intent) (string, error) {
	if !ds.hasRevenue {
		return "", billing.ErrNoRevenueColumn
	}

	total := decimal.Zero
	for _, e := range ds.Events {
		if e.BillingYear == intent.Year {
			total = total.Add(e.BillDue)
		}
	}
	return fmt.Sprintf("Total revenue in %d is %s", intent.Year, total.StringFixed(2)), nil
}

func answerHighestRevenueYear(ds *Dataset, _ string, _ Intent) (string, error) {
	if !ds.hasRevenue {
		return "", billing.ErrNoRevenueColumn
	}
	if len(ds.Events) == 0 {
		return "", ErrEmptyAggregate
	}

	byYear := make(map[int]decimal.Decimal)
	for _, e := range ds.Events {
		byYear[e.BillingYear] = byYear[e.BillingYear].Add(e.BillDue)
	}

	bestYear := 0
	var bestTotal decimal.Decimal
	for year, total := range byYear {
		if bestYear == 0 || total.GreaterThan(bestTotal) ||
			(total.Equal(bestTotal) && year < bestYear) {
			bestYear = year
			bestTotal = total
		}
	}
	return fmt.Sprintf("The highest revenue was in %d with %s", bestYear, bestTotal.StringFixed(2)), nil
}

func answerTopCustomer(ds *Dataset, _ string, _ Intent) (string, error) {
	if !ds.hasRevenue {
		return "", billing.ErrNoRevenueColumn
	}
	if len(ds.CustomerAggregates) == 0 {
		return "", ErrEmptyAggregate
	}

	top := ds.CustomerAggregates[0]
	for _, agg := range ds.CustomerAggregates[1:] {
		if agg.TotalPaid.GreaterThan(top.TotalPaid) {
			top = agg
		}
	}
	return fmt.Sprintf("Top customer is %s with total paid %s",
		top.CustomerID, top.TotalPaid.StringFixed(2)), nil
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
