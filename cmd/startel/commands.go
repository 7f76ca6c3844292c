package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/startel-org/startel/billing"
	"github.com/startel-org/startel/engine"
	"github.com/startel-org/startel/llm"
	"github.com/startel-org/startel/retrieval"
	"github.com/startel-org/startel/router"
	"github.com/startel-org/startel/server"
)

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			r := buildRouter(engine.NewStore(dataPath))

			answer, err := r.Answer(cmd.Context(), question)
			if err != nil {
				return err
			}
			fmt.Println(answer)
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := buildRouter(engine.NewStore(dataPath))
			handler := server.NewHandler(r)

			log.Info().Str("addr", addr).Str("data", dataPath).Msg("starting server")
			return handler.Routes().Run(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envOr("STARTEL_ADDR", ":8080"), "listen address")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the billing CSV and report validation results",
		RunE: func(cmd *cobra.Command, args []string) error {
			events, report, err := billing.LoadFile(dataPath)
			if err != nil {
				return err
			}

			ds, err := engine.NewDatasetFromLoad(events, report)
			if err != nil {
				return err
			}

			fmt.Printf("rows:            %d\n", report.Rows)
			fmt.Printf("loaded:          %d\n", report.Loaded)
			fmt.Printf("dropped periods: %d\n", report.DroppedPeriods)
			fmt.Printf("dropped plans:   %d\n", report.DroppedPlans)
			fmt.Printf("revenue column:  %s\n", orNone(report.RevenueColumn))
			fmt.Printf("customers:       %d\n", len(ds.CustomerAggregates))
			churned := 0
			for _, c := range ds.Churn {
				if c.IsChurned {
					churned++
				}
			}
			fmt.Printf("churned:         %d\n", churned)
			fmt.Printf("cities:          %d\n", len(ds.CityAggregates))
			fmt.Printf("fingerprint:     %s\n", ds.Fingerprint)
			return nil
		},
	}
}

func newReindexCmd() *cobra.Command {
	var citySummary, customerSummary, out string

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Embed the retrieval corpus and write an index snapshot",
		Long: "Builds the summary-sentence corpus (from the billing data, or from\n" +
			"precomputed city/customer summary CSVs), embeds it, and writes the\n" +
			"index snapshot used by ask and serve.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openAIFromEnv()
			if err != nil {
				return err
			}

			docs, err := corpusDocuments(citySummary, customerSummary)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				return fmt.Errorf("no documents to index")
			}

			ix := retrieval.NewIndex(client)
			bar := progressbar.Default(int64(len(docs)))
			err = ix.Build(cmd.Context(), docs, func(done, total int) {
				_ = bar.Set(done)
			})
			if err != nil {
				return err
			}

			if err := ix.Save(out); err != nil {
				return err
			}
			log.Info().Int("documents", len(docs)).Str("out", out).Msg("index written")
			return nil
		},
	}
	cmd.Flags().StringVar(&citySummary, "city-summary", "", "precomputed per-city summary CSV")
	cmd.Flags().StringVar(&customerSummary, "customer-summary", "", "precomputed per-customer summary CSV")
	cmd.Flags().StringVar(&out, "out", "", "snapshot output path (defaults to --index)")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if out == "" {
			out = indexPath
		}
	}
	return cmd
}

// buildRouter wires the store, the LLM client and the retrieval index.
// Without OPENAI_API_KEY only the analytical path is available.
func buildRouter(store *engine.Store) *router.Router {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Debug().Msg("OPENAI_API_KEY not set; analytical path only")
		return router.New(store, nil, nil)
	}

	client := llm.NewOpenAI(llm.DefaultConfig(apiKey))
	return router.New(store, &lazyRetriever{client: client, store: store}, client)
}

// lazyRetriever defers loading or building the index until the first
// open-ended question, so analytical questions never pay for embedding.
type lazyRetriever struct {
	client *llm.OpenAIClient
	store  *engine.Store

	once  sync.Once
	index *retrieval.Index
	err   error
}

func (l *lazyRetriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	l.once.Do(func() { l.index, l.err = l.prepare(ctx) })
	if l.err != nil {
		return nil, l.err
	}
	return l.index.Retrieve(ctx, query, k)
}

func (l *lazyRetriever) prepare(ctx context.Context) (*retrieval.Index, error) {
	ix := retrieval.NewIndex(l.client)

	if _, err := os.Stat(indexPath); err == nil {
		if err := ix.Load(indexPath); err == nil {
			log.Info().Str("index", indexPath).Int("documents", ix.Len()).
				Msg("loaded retrieval index snapshot")
			return ix, nil
		}
		log.Warn().Str("index", indexPath).Msg("snapshot unreadable; rebuilding")
	}

	ds, err := l.store.Dataset()
	if err != nil {
		return nil, err
	}
	docs := retrieval.BuildDocuments(ds.CityAggregates, ds.CustomerAggregates)
	if err := ix.Build(ctx, docs, nil); err != nil {
		return nil, err
	}
	return ix, nil
}

func corpusDocuments(citySummary, customerSummary string) ([]retrieval.Document, error) {
	if citySummary == "" && customerSummary == "" {
		events, report, err := billing.LoadFile(dataPath)
		if err != nil {
			return nil, err
		}
		ds, err := engine.NewDatasetFromLoad(events, report)
		if err != nil {
			return nil, err
		}
		return retrieval.BuildDocuments(ds.CityAggregates, ds.CustomerAggregates), nil
	}

	var docs []retrieval.Document
	if citySummary != "" {
		data, err := os.ReadFile(citySummary)
		if err != nil {
			return nil, err
		}
		cityDocs, err := retrieval.LoadCitySummaryCSV(data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, cityDocs...)
	}
	if customerSummary != "" {
		data, err := os.ReadFile(customerSummary)
		if err != nil {
			return nil, err
		}
		customerDocs, err := retrieval.LoadCustomerSummaryCSV(data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, customerDocs...)
	}
	return docs, nil
}

func openAIFromEnv() (*llm.OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	return llm.NewOpenAI(llm.DefaultConfig(apiKey)), nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
