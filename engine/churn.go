package engine

import (
	"sort"

	"github.com/startel-org/startel/billing"
)

// ChurnThresholdMonths is the recency window: a customer unseen for this
// many billing periods (or more) is presumed churned.
const ChurnThresholdMonths = 6

// ChurnRecord is the churn estimate for one customer.
//
// Recency is measured against the dataset's latest observed period, not
// wall-clock time, so the estimate is deterministic for a given load.
type ChurnRecord struct {
	CustomerID          string
	LastSeenTime        int // max TimeIndex for this customer
	MonthsSinceLastSeen int
	IsChurned           bool
	ChurnConfidence     float64 // MonthsSinceLastSeen/threshold, capped at 1.0
}

// EstimateChurn derives one ChurnRecord per customer, ordered by
// customer ID. Recomputed in full on every call, never partially
// updated.
func EstimateChurn(events []billing.BillingEvent) []ChurnRecord {
	if len(events) == 0 {
		return nil
	}

	lastSeen := make(map[string]int)
	datasetMax := 0
	for _, e := range events {
		if e.TimeIndex > lastSeen[e.CustomerID] {
			lastSeen[e.CustomerID] = e.TimeIndex
		}
		if e.TimeIndex > datasetMax {
			datasetMax = e.TimeIndex
		}
	}

	records := make([]ChurnRecord, 0, len(lastSeen))
	for customerID, last := range lastSeen {
		months := datasetMax - last
		confidence := float64(months) / float64(ChurnThresholdMonths)
		if confidence > 1 {
			confidence = 1
		}
		records = append(records, ChurnRecord{
			CustomerID:          customerID,
			LastSeenTime:        last,
			MonthsSinceLastSeen: months,
			IsChurned:           months >= ChurnThresholdMonths,
			ChurnConfidence:     confidence,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CustomerID < records[j].CustomerID
	})
	return records
}
