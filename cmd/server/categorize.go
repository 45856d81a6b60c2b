package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/storefront/internal/categorization"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/routes"
)

var categorizeFlags struct {
	input categorization.Input
	mode  string
}

var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Classify product text without touching the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := categorization.ParseMatchMode(categorizeFlags.mode)
		if err != nil {
			return err
		}

		classifier := categorization.NewClassifier(categorization.DefaultKeywords(), mode)
		c := classifier.Classify(categorizeFlags.input)

		out := map[string]interface{}{
			"primary":    c.Primary,
			"secondary":  nil,
			"confidence": c.Confidence(),
			"mode":       mode.String(),
		}
		if c.Secondary != "" {
			out["secondary"] = c.Secondary
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

var recategorizeAll bool

var recategorizeCmd = &cobra.Command{
	Use:   "recategorize",
	Short: "Assign categories to uncategorized products",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log, err := logger.New(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer log.Sync()

		db := database.Connect(cfg.DatabaseURL, log)
		redisClient := connectRedis(cmd.Context(), cfg, log)
		if redisClient != nil {
			defer redisClient.Close()
		}

		svc, err := routes.NewServices(db, cfg, redisClient, log)
		if err != nil {
			return err
		}

		report, err := svc.Catalog.Backfill(cmd.Context(), recategorizeAll)
		if err != nil {
			return err
		}
		return json.NewEncoder(cmd.OutOrStdout()).Encode(report)
	},
}

func init() {
	flags := categorizeCmd.Flags()
	flags.StringVar(&categorizeFlags.input.Name, "name", "", "product name")
	flags.StringVar(&categorizeFlags.input.Description, "description", "", "product description")
	flags.StringVar(&categorizeFlags.input.Brand, "brand", "", "product brand")
	flags.StringSliceVar(&categorizeFlags.input.Tags, "tags", nil, "comma separated product tags")
	flags.StringVar(&categorizeFlags.mode, "mode", envOr("KEYWORD_MATCH_MODE", "word"), "keyword match mode: word or substring")

	recategorizeCmd.Flags().BoolVar(&recategorizeAll, "all", false, "re-categorize every product, not only uncategorized ones")

	rootCmd.AddCommand(categorizeCmd, recategorizeCmd)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
