// Package retrieval provides the semantic-search collaborator: a small
// corpus of natural-language summary sentences (one per city, one per
// customer) and an in-memory vector index over them.
package retrieval

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/startel-org/startel/engine"
)

// Document is one retrievable corpus entry.
type Document struct {
	ID   string
	Text string
}

// BuildDocuments renders both aggregate sets into summary sentences.
// These sentences are the whole retrieval corpus; the index never sees
// raw billing rows.
func BuildDocuments(cities []engine.CityAggregate, customers []engine.CustomerRevenueAggregate) []Document {
	docs := make([]Document, 0, len(cities)+len(customers))
	for _, c := range cities {
		docs = append(docs, newDocument(citySentence(
			c.City,
			fmt.Sprintf("%d", c.TotalUsers),
			c.TotalRevenue.StringFixed(2),
			c.AvgBill.StringFixed(2),
		)))
	}
	for _, c := range customers {
		docs = append(docs, newDocument(customerSentence(
			c.CustomerID,
			c.TotalPaid.StringFixed(2),
			c.AvgMonthlyBill.StringFixed(2),
			fmt.Sprintf("%d", c.ActiveMonths),
			c.MaxBill.StringFixed(2),
			c.MinBill.StringFixed(2),
		)))
	}
	return docs
}

// LoadCitySummaryCSV renders a precomputed per-city summary table
// (city, total_users, total_revenue, avg_bill) into documents. Fast path
// for corpora exported by a prior engine run.
func LoadCitySummaryCSV(data []byte) ([]Document, error) {
	return loadSummaryCSV(data, []string{"city", "total_users", "total_revenue", "avg_bill"},
		func(row []string) string {
			return citySentence(row[0], row[1], row[2], row[3])
		})
}

// LoadCustomerSummaryCSV renders a precomputed per-customer summary
// table (customer_id, total_paid, avg_monthly_bill, active_months,
// max_bill, min_bill) into documents.
func LoadCustomerSummaryCSV(data []byte) ([]Document, error) {
	return loadSummaryCSV(data,
		[]string{"customer_id", "total_paid", "avg_monthly_bill", "active_months", "max_bill", "min_bill"},
		func(row []string) string {
			return customerSentence(row[0], row[1], row[2], row[3], row[4], row[5])
		})
}

func citySentence(city, users, revenue, avgBill string) string {
	return fmt.Sprintf("City %s has %s users, generated total revenue %s, with an average bill of %s.",
		city, users, revenue, avgBill)
}

func customerSentence(id, totalPaid, avgBill, activeMonths, maxBill, minBill string) string {
	return fmt.Sprintf("Customer with ID %s paid a total of %s, had an average monthly bill of %s, "+
		"was active for %s months, with a max bill of %s and min bill of %s.",
		id, totalPaid, avgBill, activeMonths, maxBill, minBill)
}

func newDocument(text string) Document {
	return Document{ID: uuid.NewString(), Text: text}
}

func loadSummaryCSV(data []byte, columns []string, render func(row []string) string) ([]Document, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read summary headers: %w", err)
	}

	idx := make([]int, len(columns))
	for i, want := range columns {
		idx[i] = -1
		for j, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				idx[i] = j
				break
			}
		}
		if idx[i] == -1 {
			return nil, fmt.Errorf("summary column %q is missing", want)
		}
	}

	var docs []Document
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		values := make([]string, len(columns))
		ok := true
		for i, j := range idx {
			if j >= len(row) {
				ok = false
				break
			}
			values[i] = strings.TrimSpace(row[j])
		}
		if !ok {
			continue
		}
		docs = append(docs, newDocument(render(values)))
	}
	return docs, nil
}
