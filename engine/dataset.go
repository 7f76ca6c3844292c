package engine

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/startel-org/startel/billing"
)

// Dataset bundles the transformed event set with every derived view.
// All fields are read-only after construction, so a Dataset is safe to
// share between concurrent readers.
type Dataset struct {
	Events             []billing.BillingEvent // transformed
	Churn              []ChurnRecord
	CustomerAggregates []CustomerRevenueAggregate
	CityAggregates     []CityAggregate
	Fingerprint        string

	hasRevenue bool
}

// NewDataset transforms raw events and derives churn and both aggregate
// sets. Use NewDatasetFromLoad when a LoadReport is available so the
// revenue-column check carries through to the analytical path.
func NewDataset(events []billing.BillingEvent) (*Dataset, error) {
	return newDataset(events, true)
}

// NewDatasetFromLoad builds a Dataset from a loader result.
func NewDatasetFromLoad(events []billing.BillingEvent, report *billing.LoadReport) (*Dataset, error) {
	return newDataset(events, report.HasRevenue())
}

func newDataset(events []billing.BillingEvent, hasRevenue bool) (*Dataset, error) {
	transformed, err := Transform(events)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		Events:             transformed,
		Churn:              EstimateChurn(transformed),
		CustomerAggregates: BuildCustomerAggregates(transformed),
		CityAggregates:     BuildCityAggregates(transformed),
		Fingerprint:        fingerprint(events),
		hasRevenue:         hasRevenue,
	}, nil
}

// HasRevenue reports whether the underlying load found a revenue column.
func (d *Dataset) HasRevenue() bool { return d.hasRevenue }

// fingerprint is a cheap content identity for a load: row count, the
// latest observed period and a checksum over the identifying fields.
// Identical input always produces an identical fingerprint, so derived
// tables can be reused instead of recomputed.
func fingerprint(events []billing.BillingEvent) string {
	h := fnv.New64a()
	maxTime := 0
	for _, e := range events {
		fmt.Fprintf(h, "%s|%d|%s\n", e.CustomerID, e.TimeIndex, e.BillDue.String())
		if e.TimeIndex > maxTime {
			maxTime = e.TimeIndex
		}
	}
	return fmt.Sprintf("%d-%d-%016x", len(events), maxTime, h.Sum64())
}

// Store loads a billing CSV on demand and memoizes the derived Dataset
// by content fingerprint. Recomputation is idempotent, so the cache is
// purely a performance optimization. Invalidate forces a rebuild after
// a data refresh.
type Store struct {
	path string

	mu     sync.RWMutex
	cached *Dataset
	report *billing.LoadReport
}

// NewStore creates a Store reading from the given CSV path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Dataset returns the current derived dataset, reloading the source and
// recomputing only when its content changed.
func (s *Store) Dataset() (*Dataset, error) {
	events, report, err := billing.LoadFile(s.path)
	if err != nil {
		return nil, err
	}

	fp := fingerprint(events)

	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()
	if cached != nil && cached.Fingerprint == fp {
		return cached, nil
	}

	ds, err := NewDatasetFromLoad(events, report)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cached = ds
	s.report = report
	s.mu.Unlock()

	log.Info().Str("fingerprint", fp).Int("events", len(ds.Events)).
		Int("customers", len(ds.CustomerAggregates)).
		Int("cities", len(ds.CityAggregates)).
		Msg("dataset recomputed")
	return ds, nil
}

// Report returns the load report behind the cached dataset, if any.
func (s *Store) Report() *billing.LoadReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Invalidate drops the cached dataset.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.report = nil
	s.mu.Unlock()
}
