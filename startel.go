// Package startel provides a hybrid analytics assistant for telecom
// billing data.
//
// Usage:
//
//	import (
//	    "github.com/startel-org/startel/billing"
//	    "github.com/startel-org/startel/engine"
//	)
//
//	events, report, err := billing.ParseCSV(data)
//	ds, err := engine.NewDataset(events)
//	answer, err := engine.AnswerAnalytical("total revenue in 2023", ds)
//
// The engine derives time-ordered customer state (plan history, churn,
// revenue aggregates) from raw billing rows and answers analytical
// questions deterministically. Open-ended questions are routed by the
// router package to a retrieval + text-generation collaborator.
//
// The engine itself never calls any external service; all computation
// is local. LLM access lives behind the llm package interfaces.
package startel
