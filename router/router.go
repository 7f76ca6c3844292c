// Package router is the top-level entry point: it classifies each
// question and routes it to the deterministic analytical engine or to
// the retrieval + text-generation collaborators.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/startel-org/startel/engine"
	"github.com/startel-org/startel/llm"
)

// systemPrompt constrains the generator to the retrieved context.
const systemPrompt = "You are a telecom analytics assistant. " +
	"Answer using ONLY the given context. " +
	"If the answer is not in the context, say so."

// noContextFallback is handed to the generator when retrieval finds
// nothing, so the model says so instead of inventing an answer.
const noContextFallback = "No relevant context found."

const defaultTopK = 5

// Retriever fetches context passages for an open-ended question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// DatasetSource supplies the current derived dataset. engine.Store
// implements it with fingerprint memoization.
type DatasetSource interface {
	Dataset() (*engine.Dataset, error)
}

// Router answers questions by dispatching on interpreted intent.
type Router struct {
	source    DatasetSource
	retriever Retriever
	generator llm.Generator
	topK      int
}

// New creates a Router. Retriever and generator may be nil when only
// the analytical path is exercised; open-ended questions then fail with
// a descriptive error instead of a panic.
func New(source DatasetSource, retriever Retriever, generator llm.Generator) *Router {
	return &Router{
		source:    source,
		retriever: retriever,
		generator: generator,
		topK:      defaultTopK,
	}
}

// Answer routes a question: ANALYTICAL intent goes to the engine,
// anything else to retrieval + generation.
func (r *Router) Answer(ctx context.Context, question string) (string, error) {
	intent, err := engine.Interpret(question)
	if err != nil {
		return "", err
	}

	log.Debug().Str("intent", string(intent.Kind)).Str("question", question).
		Msg("routing question")

	if intent.Kind == engine.IntentAnalytical {
		ds, err := r.source.Dataset()
		if err != nil {
			return "", err
		}
		return engine.AnswerAnalytical(question, ds)
	}
	return r.answerOpenEnded(ctx, question)
}

func (r *Router) answerOpenEnded(ctx context.Context, question string) (string, error) {
	if r.retriever == nil || r.generator == nil {
		return "", fmt.Errorf("open-ended question %q: no retrieval collaborator configured", question)
	}

	passages, err := r.retriever.Retrieve(ctx, question, r.topK)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}

	retrieved := noContextFallback
	if len(passages) > 0 {
		retrieved = strings.Join(passages, "\n")
	}

	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", retrieved, question)
	answer, err := r.generator.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answer, nil
}
