package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/clarktrimble/sabot"

	"runlens"
	"runlens/catalog"
	"runlens/render"
	"runlens/store/duck"
	"runlens/translate"
	"runlens/util"
)

const usage = `Usage: %s [-config path] [-init] "question about runs"

Translates a natural-language question into a filter/sort query and runs it
against the runs file. Set OPENAI_API_KEY for the generation service.
`

var sampleConfig = []byte(`catalog_path: catalog.yaml
runs_path: runs.ndjson
log_path: runlens.log
generator:
  endpoint: https://api.openai.com/v1
  model: gpt-4o-mini
`)

func main() {

	var configPath string
	var writeSample bool
	flag.StringVar(&configPath, "config", "runlens.yaml", "path to config file")
	flag.BoolVar(&writeSample, "init", false, "write a sample config and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if writeSample {
		err := util.SampleConfig(sampleConfig, configPath, 0644)
		if err != nil {
			log.Fatalf("Failed to write sample config: %v", err)
		}
		fmt.Printf("✓ Wrote %s\n", configPath)
		return
	}

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	query := flag.Arg(0)

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

	store, err := duck.New(lgr)
	if err != nil {
		log.Fatalf("Failed to open run store: %v", err)
	}
	defer store.Close()

	count, err := store.Load(cfg.RunsPath)
	if err != nil {
		log.Fatalf("Failed to load runs: %v", err)
	}

	cfg.Generator.APIKey = os.Getenv("OPENAI_API_KEY")
	gen := translate.NewOpenAI(cfg.Generator)

	rln := runlens.New(cat, gen, store, lgr)

	res, err := rln.Ask(ctx, query)
	showTranslation(res)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	fmt.Printf("🔍 Found %d matching results out of %d total rows\n\n", len(res.Table.Rows), count)
	fmt.Println(render.Table(res.Table))
}

// showTranslation prints the translation artifacts, mirroring what went to
// the store, before any rows or errors.
func showTranslation(res runlens.Result) {

	fmt.Printf("Query:  %s\n", res.Query)
	fmt.Printf("Fields: %s\n", asJson(res.Fields))
	if res.Filter != nil {
		fmt.Printf("Filter: %s\n", asJson(res.Filter))
	}
	fmt.Printf("Sort:   %s\n\n", asJson(res.Sorts))
}

func asJson(val any) string {

	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Sprintf("%v", val)
	}
	return string(data)
}
