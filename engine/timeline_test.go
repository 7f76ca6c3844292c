package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startel-org/startel/billing"
)

// evt builds a billing event the way the loader would.
func evt(customer, city string, plan billing.Plan, monthNum, year int, bill string) billing.BillingEvent {
	return billing.BillingEvent{
		CustomerID:   customer,
		City:         city,
		Plan:         plan,
		BillingYear:  year,
		BillingMonth: billing.MonthName(monthNum),
		MonthNum:     monthNum,
		TimeIndex:    year*12 + monthNum,
		PlanRank:     plan.Rank(),
		BillDue:      decimal.RequireFromString(bill),
	}
}

func byCustomerTime(events []billing.BillingEvent, customer string, timeIndex int) billing.BillingEvent {
	for _, e := range events {
		if e.CustomerID == customer && e.TimeIndex == timeIndex {
			return e
		}
	}
	return billing.BillingEvent{}
}

func TestTransformUpgradeScenario(t *testing.T) {
	events := []billing.BillingEvent{
		evt("C1", "Pune", billing.PlanSilver, 1, 2023, "100.00"),
		evt("C1", "Pune", billing.PlanGold, 2, 2023, "150.00"),
	}

	out, err := Transform(events)
	require.NoError(t, err)
	require.Len(t, out, 2)

	first := byCustomerTime(out, "C1", 2023*12+1)
	assert.Equal(t, billing.MovementNewCustomer, first.Movement)
	assert.Equal(t, billing.Plan(""), first.PrevPlan)
	assert.Equal(t, 0, first.PrevPlanRank)
	assert.Equal(t, "NONE_to_Silver", first.Transition)

	second := byCustomerTime(out, "C1", 2023*12+2)
	assert.Equal(t, billing.MovementUpgrade, second.Movement)
	assert.Equal(t, billing.PlanSilver, second.PrevPlan)
	assert.Equal(t, 1, second.PlanChange)
	assert.Equal(t, "Silver_to_Gold", second.Transition)
}

func TestTransformOrdersByTimeIndexNotInputOrder(t *testing.T) {
	// February arrives before January in the input; the transform must
	// still treat January as the first record.
	events := []billing.BillingEvent{
		evt("C1", "Pune", billing.PlanGold, 2, 2023, "150.00"),
		evt("C1", "Pune", billing.PlanSilver, 1, 2023, "100.00"),
		evt("C1", "Pune", billing.PlanSilver, 12, 2022, "90.00"),
	}

	out, err := Transform(events)
	require.NoError(t, err)

	dec := byCustomerTime(out, "C1", 2022*12+12)
	assert.Equal(t, billing.MovementNewCustomer, dec.Movement)

	jan := byCustomerTime(out, "C1", 2023*12+1)
	assert.Equal(t, billing.MovementNoChange, jan.Movement)
	assert.Equal(t, "Silver_to_Silver", jan.Transition)

	feb := byCustomerTime(out, "C1", 2023*12+2)
	assert.Equal(t, billing.MovementUpgrade, feb.Movement)
}

func TestTransformMovementMapsSignOfPlanChange(t *testing.T) {
	events := []billing.BillingEvent{
		evt("C1", "Pune", billing.PlanPlatinum, 1, 2023, "300.00"),
		evt("C1", "Pune", billing.PlanSilver, 2, 2023, "100.00"),
		evt("C1", "Pune", billing.PlanSilver, 3, 2023, "100.00"),
	}

	out, err := Transform(events)
	require.NoError(t, err)

	feb := byCustomerTime(out, "C1", 2023*12+2)
	assert.Equal(t, billing.MovementDowngrade, feb.Movement)
	assert.Equal(t, -2, feb.PlanChange)
	assert.Equal(t, "Platinum_to_Silver", feb.Transition)

	mar := byCustomerTime(out, "C1", 2023*12+3)
	assert.Equal(t, billing.MovementNoChange, mar.Movement)
	assert.Equal(t, 0, mar.PlanChange)
}

func TestTransformStrictTemporalOrderPerCustomer(t *testing.T) {
	events := []billing.BillingEvent{
		evt("C1", "Pune", billing.PlanSilver, 3, 2023, "100.00"),
		evt("C2", "Delhi", billing.PlanGold, 3, 2023, "200.00"),
		evt("C1", "Pune", billing.PlanSilver, 1, 2023, "100.00"),
		evt("C2", "Delhi", billing.PlanGold, 5, 2023, "200.00"),
		evt("C1", "Pune", billing.PlanGold, 11, 2022, "150.00"),
	}

	out, err := Transform(events)
	require.NoError(t, err)

	// movement_type is new_customer iff there is no previous rank.
	for _, e := range out {
		if e.PrevPlanRank == 0 {
			assert.Equal(t, billing.MovementNewCustomer, e.Movement)
		} else {
			assert.NotEqual(t, billing.MovementNewCustomer, e.Movement)
		}
	}

	// Exactly one new_customer record per customer.
	firsts := make(map[string]int)
	for _, e := range out {
		if e.Movement == billing.MovementNewCustomer {
			firsts[e.CustomerID]++
		}
	}
	assert.Equal(t, map[string]int{"C1": 1, "C2": 1}, firsts)
}

func TestTransformRejectsDuplicatePeriods(t *testing.T) {
	events := []billing.BillingEvent{
		evt("C1", "Pune", billing.PlanSilver, 1, 2023, "100.00"),
		evt("C1", "Pune", billing.PlanGold, 1, 2023, "150.00"),
	}

	_, err := Transform(events)
	var dupErr *billing.DuplicatePeriodError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "C1", dupErr.CustomerID)
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	events := []billing.BillingEvent{
		evt("C1", "Pune", billing.PlanSilver, 1, 2023, "100.00"),
		evt("C1", "Pune", billing.PlanGold, 2, 2023, "150.00"),
	}

	_, err := Transform(events)
	require.NoError(t, err)
	assert.Empty(t, events[1].Movement)
	assert.Empty(t, events[1].Transition)
}
