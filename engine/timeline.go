package engine

import (
	"fmt"
	"sort"

	"github.com/startel-org/startel/billing"
)

// Transform annotates billing events with temporal features: previous
// plan, plan change, movement classification and transition label.
//
// Events are partitioned by customer, each partition is ordered by
// TimeIndex, and the prior row's plan is carried forward in a single
// scan. The input slice is not mutated; the returned slice preserves the
// input order.
//
// A duplicate (customer, TimeIndex) pair makes the per-customer order
// ambiguous and is rejected. The loader already guarantees uniqueness,
// so hitting this here means the events were assembled by hand.
func Transform(events []billing.BillingEvent) ([]billing.BillingEvent, error) {
	out := make([]billing.BillingEvent, len(events))
	copy(out, events)

	// Partition: customer → positions in out.
	partitions := make(map[string][]int)
	for i, e := range out {
		partitions[e.CustomerID] = append(partitions[e.CustomerID], i)
	}

	for customerID, idxs := range partitions {
		sort.Slice(idxs, func(a, b int) bool {
			return out[idxs[a]].TimeIndex < out[idxs[b]].TimeIndex
		})

		for n, i := range idxs {
			e := &out[i]
			if n > 0 {
				prev := out[idxs[n-1]]
				if prev.TimeIndex == e.TimeIndex {
					return nil, &billing.DuplicatePeriodError{
						CustomerID: customerID,
						Month:      e.BillingMonth,
						Year:       e.BillingYear,
					}
				}
				e.PrevPlan = prev.Plan
				e.PrevPlanRank = prev.PlanRank
			}
			e.PlanChange = e.PlanRank - e.PrevPlanRank
			e.Movement = classifyMovement(e.PrevPlanRank, e.PlanChange)
			e.Transition = transitionLabel(e.PrevPlan, e.Plan)
		}
	}

	return out, nil
}

// classifyMovement maps the sign of the plan change to a movement type.
// A customer's first record has no previous rank and is new_customer.
func classifyMovement(prevRank, change int) billing.MovementType {
	switch {
	case prevRank == 0:
		return billing.MovementNewCustomer
	case change > 0:
		return billing.MovementUpgrade
	case change < 0:
		return billing.MovementDowngrade
	}
	return billing.MovementNoChange
}

// transitionLabel builds "{prev}_to_{plan}", using NONE for a customer's
// first record.
func transitionLabel(prev, plan billing.Plan) string {
	from := "NONE"
	if prev != "" {
		from = string(prev)
	}
	return fmt.Sprintf("%s_to_%s", from, plan)
}

// TransitionPair builds the transition label for an explicit plan pair.
func TransitionPair(from, to billing.Plan) string {
	return fmt.Sprintf("%s_to_%s", from, to)
}
