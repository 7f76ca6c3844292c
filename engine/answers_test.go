package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startel-org/startel/billing"
)

func answerDataset(t *testing.T, events []billing.BillingEvent) *Dataset {
	t.Helper()
	ds, err := NewDataset(events)
	require.NoError(t, err)
	return ds
}

func TestAnswerTotalRevenueYear(t *testing.T) {
	ds := answerDataset(t, []billing.BillingEvent{
		evt("C1", "Pune", billing.PlanSilver, 1, 2023, "500.00"),
		evt("C2", "Delhi", billing.PlanGold, 2, 2023, "750.00"),
		evt("C1", "Pune", billing.PlanSilver, 1, 2022, "999.00"),
	})

	answer, err := AnswerAnalytical("total revenue in 2023", ds)
	require.NoError(t, err)
	assert.Equal(t, "Total revenue in 2023 is 1250.00", answer)

	// A year with no rows still answers, with a zero total.
	answer, err = AnswerAnalytical("total revenue in 2024", ds)
	require.NoError(t, err)
	assert.Equal(t, "Total revenue in 2024 is 0.00", answer)
}

func TestAnswerCityEnumeration(t *testing.T) {
	ds := answerDataset(t, []billing.BillingEvent{
		evt("C1", "Pune", billing.PlanSilver, 1, 2023, "100.00"),
		evt("C2", "Delhi", billing.PlanGold, 1, 2023, "200.00"),
		evt("C3", "Pune", billing.PlanSilver, 2, 2023, "100.00"),
	})

	for _, q := range []string{"list all cities", "what all cities are there", "show cities"} {
		answer, err := AnswerAnalytical(q, ds)
		require.NoError(t, err, "question %q", q)
		assert.Equal(t, "Cities in the data: Delhi, Pune", answer, "question %q", q)
	}

	empty := answerDataset(t, nil)
	answer, err := AnswerAnalytical("list all cities", empty)
	require.NoError(t, err)
	assert.Equal(t, "No cities found in the data.", answer)
}

func TestAnswerPlanMovement(t *testing.T) {
	ds := answerDataset(t, []billing.BillingEvent{
		evt("C1", "Pune", billing.PlanSilver, 1, 2023, "100.00"),
		evt("C1", "Pune", billing.PlanGold, 2, 2023, "150.00"),
		evt("C2", "Delhi", billing.PlanSilver, 1, 2023, "100.00"),
		evt("C2", "Delhi", billing.PlanGold, 3, 2023, "150.00"),
		evt("C3", "Pune", billing.PlanPlatinum, 1, 2023, "400.00"),
		evt("C3", "Pune", billing.PlanGold, 2, 2023, "150.00"),
		evt("C4", "Pune", billing.PlanSilver, 1, 2022, "90.00"),
		evt("C4", "Pune", billing.PlanGold, 2, 2022, "140.00"),
	})

	answer, err := AnswerAnalytical("how many upgrades from Silver to Gold in 2023", ds)
	require.NoError(t, err)
	assert.Equal(t, "Upgrades from Silver to Gold in 2023: 2", answer)

	answer, err = AnswerAnalytical("how many upgrades in 2023", ds)
	require.NoError(t, err)
	assert.Equal(t, "Total upgrades in 2023: 2", answer)

	answer, err = AnswerAnalytical("how many downgrades", ds)
	require.NoError(t, err)
	assert.Equal(t, "Total downgrades: 1", answer)

	answer, err = AnswerAnalytical("how many upgrades Silver→Gold", ds)
	require.NoError(t, err)
	assert.Equal(t, "Upgrades from Silver to Gold: 3", answer)
}

func TestAnswerHighestRevenueYear(t *testing.T) {
	ds := answerDataset(t, []billing.BillingEvent{
		evt("C1", "Pune", billing.PlanSilver, 1, 2022, "300.00"),
		evt("C1", "Pune", billing.PlanSilver, 1, 2023, "500.00"),
		evt("C2", "Delhi", billing.PlanGold, 2, 2023, "100.00"),
	})

	answer, err := AnswerAnalytical("which year had the highest revenue", ds)
	require.NoError(t, err)
	assert.Equal(t, "The highest revenue was in 2023 with 600.00", answer)
}

func TestAnswerHighestRevenueYearTie(t *testing.T) {
	ds := answerDataset(t, []billing.BillingEvent{
		evt("C1", "Pune", billing.PlanSilver, 1, 2022, "500.00"),
		evt("C1", "Pune", billing.PlanSilver, 1, 2023, "500.00"),
	})

	// Ties resolve to the earlier year.
	answer, err := AnswerAnalytical("highest revenue year", ds)
	require.NoError(t, err)
	assert.Equal(t, "The highest revenue was in 2022 with 500.00", answer)
}

func TestAnswerTopCustomer(t *testing.T) {
	ds := answerDataset(t, []billing.BillingEvent{
		evt("C1", "Pune", billing.PlanSilver, 1, 2023, "100.00"),
		evt("C1", "Pune", billing.PlanSilver, 2, 2023, "100.00"),
		evt("C2", "Delhi", billing.PlanGold, 1, 2023, "350.00"),
	})

	answer, err := AnswerAnalytical("who is the top customer", ds)
	require.NoError(t, err)
	assert.Equal(t, "Top customer is C2 with total paid 350.00", answer)
}

func TestAnswerUnsupported(t *testing.T) {
	ds := answerDataset(t, []billing.BillingEvent{
		evt("C1", "Pune", billing.PlanSilver, 1, 2023, "100.00"),
	})

	// Analytical by keyword, but no handler claims it.
	answer, err := AnswerAnalytical("how many customers are there", ds)
	require.NoError(t, err)
	assert.Equal(t, UnsupportedAnswer, answer)
}

func TestAnswerAmbiguousYear(t *testing.T) {
	ds := answerDataset(t, []billing.BillingEvent{
		evt("C1", "Pune", billing.PlanSilver, 1, 2023, "100.00"),
	})

	_, err := AnswerAnalytical("total revenue in 2022 and 2023", ds)
	assert.ErrorIs(t, err, ErrAmbiguousYear)
}

func TestAnswerNoRevenueColumn(t *testing.T) {
	events := []billing.BillingEvent{
		evt("C1", "Pune", billing.PlanSilver, 1, 2023, "0"),
	}
	ds, err := NewDatasetFromLoad(events, &billing.LoadReport{Loaded: 1})
	require.NoError(t, err)

	for _, q := range []string{
		"total revenue in 2023",
		"which year had the highest revenue",
		"top customer",
	} {
		_, err := AnswerAnalytical(q, ds)
		assert.ErrorIs(t, err, billing.ErrNoRevenueColumn, "question %q", q)
	}

	// Movement and city questions need no revenue column.
	answer, err := AnswerAnalytical("list all cities", ds)
	require.NoError(t, err)
	assert.Equal(t, "Cities in the data: Pune", answer)
}

func TestAnswerEmptyAggregate(t *testing.T) {
	ds := answerDataset(t, nil)

	_, err := AnswerAnalytical("top customer", ds)
	assert.ErrorIs(t, err, ErrEmptyAggregate)

	_, err = AnswerAnalytical("highest revenue year", ds)
	assert.ErrorIs(t, err, ErrEmptyAggregate)
}
