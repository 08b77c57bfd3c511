package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/clarktrimble/sabot"

	"runlens"
	"runlens/catalog"
	"runlens/eval"
	"runlens/translate"
	"runlens/util"
)

func main() {

	var configPath, datasetPath, modeName string
	flag.StringVar(&configPath, "config", "runlens.yaml", "path to config file")
	flag.StringVar(&datasetPath, "dataset", "dataset.json", "path to labeled dataset")
	flag.StringVar(&modeName, "mode", "gold", "comparison mode: gold or resynthesize")
	flag.Parse()

	var mode eval.Mode
	switch modeName {
	case "gold":
		mode = eval.ModeGold
	case "resynthesize":
		mode = eval.ModeResynthesize
	default:
		log.Fatalf("Unknown mode %q, want gold or resynthesize", modeName)
	}

	cfg, err := runlens.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile := util.OpenLog(cfg.LogPath, 0644)
	defer util.CloseLog(logFile)
	lgr := &sabot.Sabot{Writer: logFile}

	ctx := context.Background()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load field catalog: %v", err)
	}

	items, err := eval.LoadDataset(datasetPath)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	cfg.Generator.APIKey = os.Getenv("OPENAI_API_KEY")

	harness := &eval.Harness{
		Pipeline: &translate.Pipeline{
			Catalog:   cat,
			Generator: translate.NewOpenAI(cfg.Generator),
			Logger:    lgr,
		},
		Mode: mode,
	}

	report, err := harness.Run(ctx, items)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	fmt.Printf("Evaluated %d queries against %s (mode: %s)\n\n", len(report.Results), datasetPath, report.Mode)
	for _, res := range report.Results {
		switch {
		case res.Err != nil:
			fmt.Printf("  ✗ [%s] %-60s error: %v\n", res.ID, res.UserQuery, res.Err)
		case res.Score == 1:
			fmt.Printf("  ✓ [%s] %s\n", res.ID, res.UserQuery)
		default:
			fmt.Printf("  ✗ [%s] %s\n", res.ID, res.UserQuery)
		}
	}
	fmt.Printf("\nAccuracy: %.2f\n", report.Accuracy)
}
