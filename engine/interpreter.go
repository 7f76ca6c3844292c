package engine

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/startel-org/startel/billing"
)

// IntentKind is the coarse classification of a question.
type IntentKind string

const (
	IntentAnalytical IntentKind = "ANALYTICAL"
	IntentOpenEnded  IntentKind = "OPEN_ENDED"
)

// ErrAmbiguousYear is returned when a question names more than one year.
var ErrAmbiguousYear = errors.New("question names more than one year")

// Intent is the parsed form of a question.
type Intent struct {
	Kind  IntentKind
	Year  int            // 0 = no year in the question
	Plans []billing.Plan // up to two, in order of appearance
}

// analyticalKeywords is the single authoritative keyword table for
// intent classification. A question containing any of these (after
// normalization) is answerable from structured aggregates.
var analyticalKeywords = []string{
	"total revenue",
	"highest revenue",
	"max revenue",
	"which year",
	"how many",
	"top customer",
	"highest contributor",
	"upgrade",
	"downgrade",
	"what all",
	"all cities",
	"show cities",
}

// enumerationWords combined with "city"/"cities" also mark a question as
// analytical ("list the cities", "all city names"). Matched as whole
// words so "overall" or "smallest" do not trigger them.
var enumerationWords = []string{"list", "all", "show"}

var digitRun = regexp.MustCompile(`[0-9]+`)

// Interpret classifies a question and extracts its parameters.
//
// A question naming two distinct years fails with ErrAmbiguousYear
// rather than silently taking the first.
func Interpret(question string) (Intent, error) {
	q := Normalize(question)

	intent := Intent{Kind: IntentOpenEnded}
	if isAnalytical(q) {
		intent.Kind = IntentAnalytical
	}
	if intent.Kind != IntentAnalytical {
		return intent, nil
	}

	year, err := extractYear(q)
	if err != nil {
		return intent, err
	}
	intent.Year = year
	intent.Plans = extractPlans(q)
	return intent, nil
}

// Normalize lowercases the question and collapses separators: "→", "_",
// "-" and the standalone word "to" all become single spaces, so
// "Silver→Gold", "silver_to_gold" and "silver to gold" compare equal.
func Normalize(question string) string {
	q := strings.ToLower(question)
	for _, sep := range []string{"→", "_", "-"} {
		q = strings.ReplaceAll(q, sep, " ")
	}

	fields := strings.Fields(q)
	kept := fields[:0]
	for _, f := range fields {
		if f == "to" {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

func isAnalytical(normalized string) bool {
	for _, kw := range analyticalKeywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	if strings.Contains(normalized, "city") || strings.Contains(normalized, "cities") {
		for _, w := range enumerationWords {
			if hasWord(normalized, w) {
				return true
			}
		}
	}
	return false
}

// hasWord reports whether the normalized question contains w as a whole
// word.
func hasWord(normalized, w string) bool {
	for _, f := range strings.Fields(normalized) {
		if f == w {
			return true
		}
	}
	return false
}

// extractYear finds the first maximal run of exactly four digits.
// Two distinct four-digit runs are rejected as ambiguous.
func extractYear(normalized string) (int, error) {
	year := 0
	for _, run := range digitRun.FindAllString(normalized, -1) {
		if len(run) != 4 {
			continue
		}
		v, err := strconv.Atoi(run)
		if err != nil {
			continue
		}
		if year == 0 {
			year = v
		} else if v != year {
			return 0, ErrAmbiguousYear
		}
	}
	return year, nil
}

// extractPlans finds up to two plan names as substrings of the
// normalized question, in order of appearance.
func extractPlans(normalized string) []billing.Plan {
	type hit struct {
		pos  int
		plan billing.Plan
	}
	var hits []hit
	for _, p := range []billing.Plan{billing.PlanSilver, billing.PlanGold, billing.PlanPlatinum} {
		if pos := strings.Index(normalized, strings.ToLower(string(p))); pos >= 0 {
			hits = append(hits, hit{pos: pos, plan: p})
		}
	}

	// Order of appearance in the question.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	var plans []billing.Plan
	for _, h := range hits {
		plans = append(plans, h.plan)
		if len(plans) == 2 {
			break
		}
	}
	return plans
}
