package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	dataPath  string
	indexPath string
	verbose   bool
)

func main() {
	// Optional .env for local runs; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "startel",
		Short: "Startel telecom analytics assistant",
		Long: "startel answers natural-language questions about telecom billing data.\n" +
			"Analytical questions (revenue, plan movement, churn) are computed\n" +
			"deterministically; open-ended questions go through semantic retrieval\n" +
			"and a text-generation model (requires OPENAI_API_KEY).",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).With().Timestamp().Logger()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&dataPath, "data",
		envOr("STARTEL_DATA", "startel_billing.csv"), "path to the billing CSV")
	root.PersistentFlags().StringVar(&indexPath, "index",
		envOr("STARTEL_INDEX", "startel_index.json"), "path to the retrieval index snapshot")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newAskCmd(), newServeCmd(), newValidateCmd(), newReindexCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
